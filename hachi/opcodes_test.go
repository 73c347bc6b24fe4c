/*
	Copyright 2015 Franc[e]sco (lolisamurai@tfwno.gf)
	This file is part of go-hachi.
	go-hachi is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.
	go-hachi is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.
	You should have received a copy of the GNU General Public License
	along with go-hachi. If not, see <http://www.gnu.org/licenses/>.
*/

package hachi

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/assert"
)

func TestDecode(t *testing.T) {
	op := decode(0xD1, 0x2F)
	assert.Equal(t, uint16(0xD12F), op.word)
	assert.Equal(t, uint8(0x1), op.x)
	assert.Equal(t, uint8(0x2), op.y)
	assert.Equal(t, uint8(0xF), op.n)
	assert.Equal(t, uint8(0x2F), op.nn)
	assert.Equal(t, uint16(0x12F), op.nnn)
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name  string
		op    uint16
		vx    uint8
		vy    uint8
		wantX uint8
		wantF uint8
	}{
		{"LD", 0x8120, 0x11, 0x22, 0x22, 0x07},
		{"OR", 0x8121, 0xF0, 0x0F, 0xFF, 0x07},
		{"AND", 0x8122, 0xF3, 0x3F, 0x33, 0x07},
		{"XOR", 0x8123, 0xFF, 0x0F, 0xF0, 0x07},
		{"ADD carry", 0x8124, 0xFF, 0x01, 0x00, 1},
		{"ADD no carry", 0x8124, 0x10, 0x20, 0x30, 0},
		{"SUB borrow", 0x8125, 0x01, 0x02, 0xFF, 0},
		{"SUB no borrow", 0x8125, 0x05, 0x02, 0x03, 1},
		{"SUB equal", 0x8125, 0x05, 0x05, 0x00, 0},
		{"SHR shifts VY", 0x8126, 0xFF, 0x05, 0x02, 1},
		{"SHR even", 0x8126, 0x01, 0x04, 0x02, 0},
		{"SUBN no borrow", 0x8127, 0x02, 0x05, 0x03, 1},
		{"SUBN borrow", 0x8127, 0x05, 0x02, 0xFD, 0},
		{"SUBN equal", 0x8127, 0x05, 0x05, 0x00, 0},
		{"SHL shifts VY", 0x812E, 0x00, 0x81, 0x02, 1},
		{"SHL no carry", 0x812E, 0xFF, 0x41, 0x82, 0},
		{"ADD immediate wraps", 0x71FF, 0x02, 0x00, 0x01, 0x07},
		{"LD immediate", 0x61AB, 0x02, 0x00, 0xAB, 0x07},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestMachine(t, tt.op)
			c.V[1] = tt.vx
			c.V[2] = tt.vy
			c.V[0xF] = 0x07

			redraw, err := c.Step()
			assert.NoError(t, err)
			assert.False(t, redraw)
			assert.Equal(t, tt.wantX, c.V[1])
			assert.Equal(t, tt.wantF, c.V[0xF])
			assert.Equal(t, tt.vy, c.V[2])
			assert.Equal(t, uint16(0x202), c.PC)
		})
	}
}

func TestArithmetic_FlagWrittenLast(t *testing.T) {
	// ADD VF, V1: the carry overwrites the sum
	c, _, _ := newTestMachine(t, 0x8F14)
	c.V[0xF] = 0xFF
	c.V[1] = 0x01
	steps(t, c, 1)
	assert.Equal(t, uint8(1), c.V[0xF])
}

func TestSkips(t *testing.T) {
	tests := []struct {
		name   string
		op     uint16
		v1, v2 uint8
		wantPC uint16
	}{
		{"SE imm taken", 0x3142, 0x42, 0, 0x204},
		{"SE imm not taken", 0x3142, 0x41, 0, 0x202},
		{"SNE imm taken", 0x4142, 0x41, 0, 0x204},
		{"SNE imm not taken", 0x4142, 0x42, 0, 0x202},
		{"SE reg taken", 0x5120, 0x10, 0x10, 0x204},
		{"SE reg not taken", 0x5120, 0x10, 0x11, 0x202},
		{"SNE reg taken", 0x9120, 0x10, 0x11, 0x204},
		{"SNE reg not taken", 0x9120, 0x10, 0x10, 0x202},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestMachine(t, tt.op)
			c.V[1] = tt.v1
			c.V[2] = tt.v2
			steps(t, c, 1)
			assert.Equal(t, tt.wantPC, c.PC)
		})
	}
}

func TestJumps(t *testing.T) {
	c, _, _ := newTestMachine(t, 0x1ABC)
	steps(t, c, 1)
	assert.Equal(t, uint16(0xABC), c.PC)

	c, _, _ = newTestMachine(t, 0xB300)
	c.V[0] = 0x10
	steps(t, c, 1)
	assert.Equal(t, uint16(0x310), c.PC)

	c, _, _ = newTestMachine(t, 0xBFFF)
	c.V[0] = 0x02
	steps(t, c, 1)
	assert.Equal(t, uint16(0x001), c.PC)
}

func TestCallReturn(t *testing.T) {
	c, _, _ := newTestMachine(t,
		0x2206, // CALL 206
		0x0000,
		0x0000,
		0x00EE, // RET
	)

	steps(t, c, 1)
	assert.Equal(t, uint16(0x206), c.PC)
	assert.Equal(t, []uint16{0x202}, c.Stack)

	steps(t, c, 1)
	assert.Equal(t, uint16(0x202), c.PC)
	assert.Equal(t, 0, len(c.Stack))
}

func TestCall_NoDepthLimit(t *testing.T) {
	c, _, _ := newTestMachine(t, 0x2200) // CALL 200, forever
	steps(t, c, 100)
	assert.Equal(t, 100, len(c.Stack))
	assert.Equal(t, uint16(0x202), c.Stack[99])
}

func TestReturn_EmptyStack(t *testing.T) {
	c, _, _ := newTestMachine(t, 0x00EE)
	_, err := c.Step()
	var underflow *StackUnderflowErr
	assert.True(t, errors.As(err, &underflow))
	assert.Equal(t, uint16(0x200), underflow.Address)
}

func TestRandom(t *testing.T) {
	c, _, _ := newTestMachine(t, 0xC10F, 0xC200)
	c.V[2] = 0xFF
	steps(t, c, 2)
	assert.Equal(t, uint8(0), c.V[1]&0xF0)
	assert.Equal(t, uint8(0), c.V[2])

	// same seed, same sequence
	other, _, _ := newTestMachine(t, 0xC1FF, 0xC1FF)
	again, _, _ := newTestMachine(t, 0xC1FF, 0xC1FF)
	steps(t, other, 2)
	steps(t, again, 2)
	assert.Equal(t, other.V[1], again.V[1])
}

func TestIndexRegister(t *testing.T) {
	c, _, _ := newTestMachine(t,
		0xA300, // LD I, 300
		0xF11E, // ADD I, V1
	)
	c.V[1] = 0x10
	c.V[0xF] = 0x07
	steps(t, c, 2)
	assert.Equal(t, uint16(0x310), c.I)
	assert.Equal(t, uint8(0x07), c.V[0xF])
}

func TestIndexRegister_Overflow(t *testing.T) {
	c, _, _ := newTestMachine(t,
		0xAFFF, // LD I, FFF
		0xF11E, // ADD I, V1
	)
	c.V[1] = 0x02
	steps(t, c, 2)
	assert.Equal(t, uint16(0x001), c.I)
	assert.Equal(t, uint8(1), c.V[0xF])
}

func TestFontGlyph(t *testing.T) {
	c, _, _ := newTestMachine(t, 0xF129)
	c.V[1] = 0x1A // only the low nibble selects the glyph
	steps(t, c, 1)
	assert.Equal(t, uint16(0xA*GlyphBytes), c.I)
	assert.Equal(t, []byte{0xF0, 0x90, 0xF0, 0x90, 0x90}, c.Memory[c.I:c.I+GlyphBytes])
}

func TestBCD(t *testing.T) {
	c, _, _ := newTestMachine(t, 0xA300, 0xF133)
	c.V[1] = 254
	steps(t, c, 2)
	assert.Equal(t, []byte{2, 5, 4}, c.Memory[0x300:0x303])
	assert.Equal(t, uint16(0x300), c.I)
}

func TestStoreLoadRegisters(t *testing.T) {
	c, _, _ := newTestMachine(t,
		0xA300, // LD I, 300
		0xF355, // LD [I], V3
		0x6000, // LD V0, 00
		0x6100, // LD V1, 00
		0xF165, // LD V1, [I]
	)
	c.V = [RegisterCount]uint8{1, 2, 3, 4, 5}

	steps(t, c, 2)
	assert.Equal(t, []byte{1, 2, 3, 4, 0}, c.Memory[0x300:0x305])
	assert.Equal(t, uint16(0x300), c.I)

	steps(t, c, 3)
	assert.Equal(t, uint8(1), c.V[0])
	assert.Equal(t, uint8(2), c.V[1])
	assert.Equal(t, uint16(0x300), c.I)
}

func TestMemoryAccessErrors(t *testing.T) {
	tests := []struct {
		name    string
		program []uint16
		address int
	}{
		{"store past end", []uint16{0xAFFF, 0xF155}, 0x1000},
		{"load past end", []uint16{0xAFFE, 0xF265}, 0x1000},
		{"bcd past end", []uint16{0xAFFE, 0xF033}, 0x1000},
		{"draw past end", []uint16{0xAFFD, 0xD005}, 0x1001},
		{"bcd into font", []uint16{0xA010, 0xF033}, 0x010},
		{"store into font", []uint16{0xA04F, 0xF055}, 0x04F},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestMachine(t, tt.program...)
			steps(t, c, 1)

			_, err := c.Step()
			var accessErr *AccessErr
			assert.True(t, errors.As(err, &accessErr))
			assert.Equal(t, tt.address, accessErr.Address)
			assert.Equal(t, uint16(0x202), accessErr.PC)
			assert.Equal(t, uint16(0x202), c.PC)
		})
	}
}

func TestMemoryAccess_EdgesAllowed(t *testing.T) {
	c, _, _ := newTestMachine(t,
		0xAFFE, // LD I, FFE
		0xF155, // LD [I], V1
		0xA000, // LD I, 000
		0xF465, // LD V4, [I]
	)
	c.V[0], c.V[1] = 0xAA, 0xBB
	steps(t, c, 4)
	assert.Equal(t, []byte{0xAA, 0xBB}, c.Memory[0xFFE:])
	assert.Equal(t, uint8(0xF0), c.V[0])
	assert.Equal(t, uint8(0x90), c.V[1])
}

func TestFetchPastEnd(t *testing.T) {
	c, _, _ := newTestMachine(t, 0x1FFF)
	steps(t, c, 1)

	_, err := c.Step()
	var accessErr *AccessErr
	assert.True(t, errors.As(err, &accessErr))
	assert.Equal(t, 0xFFF, accessErr.Address)
}

func TestUnknownInstructions(t *testing.T) {
	for _, word := range []uint16{
		0x0000, 0x0123, 0x00E1, 0x5001, 0x9001, 0x8008, 0x800F,
		0xE000, 0xE19F, 0xF000, 0xF0FF,
	} {
		c, _, _ := newTestMachine(t, word)
		_, err := c.Step()

		var badCode *BadCodeErr
		assert.True(t, errors.As(err, &badCode))
		assert.Equal(t, word, badCode.Word)
		assert.Equal(t, uint16(0x200), badCode.Address)
		assert.Equal(t, uint16(0x200), c.PC)
	}
}

func TestTimerRegisters(t *testing.T) {
	c, _, _ := newTestMachine(t,
		0x6120, // LD V1, 20
		0xF115, // LD DT, V1
		0xF118, // LD ST, V1
		0xF207, // LD V2, DT
	)
	steps(t, c, 4)
	assert.Equal(t, uint8(0x20), c.DT)
	assert.Equal(t, uint8(0x20), c.ST)
	assert.Equal(t, uint8(0x20), c.V[2])
}

func TestKeySkips(t *testing.T) {
	tests := []struct {
		name   string
		op     uint16
		held   bool
		wantPC uint16
	}{
		{"SKP held", 0xE19E, true, 0x204},
		{"SKP released", 0xE19E, false, 0x202},
		{"SKNP held", 0xE1A1, true, 0x202},
		{"SKNP released", 0xE1A1, false, 0x204},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, keys, _ := newTestMachine(t, tt.op)
			c.V[1] = 0x17 // only the low nibble selects the key
			keys.Set(0x7, tt.held)
			steps(t, c, 1)
			assert.Equal(t, tt.wantPC, c.PC)
		})
	}
}

func TestWaitKey(t *testing.T) {
	c, keys, _ := newTestMachine(t,
		0xF30A, // LD V3, K
		0x6101, // LD V1, 01
	)

	for i := 0; i < 5; i++ {
		redraw, err := c.Step()
		assert.NoError(t, err)
		assert.False(t, redraw)
		assert.True(t, c.AwaitingKey())
		assert.Equal(t, uint16(0x200), c.PC)
	}
	assert.Equal(t, uint8(0), c.V[1])

	keys.Press(0xC)
	keys.Press(0x9)
	steps(t, c, 1)
	assert.False(t, c.AwaitingKey())
	assert.Equal(t, uint8(0x9), c.V[3])
	assert.Equal(t, uint16(0x202), c.PC)

	steps(t, c, 1)
	assert.Equal(t, uint8(1), c.V[1])
}

func TestWaitKey_AlreadyHeld(t *testing.T) {
	c, keys, _ := newTestMachine(t, 0xF30A)
	keys.Press(0x0)
	steps(t, c, 1)
	assert.False(t, c.AwaitingKey())
	assert.Equal(t, uint8(0), c.V[3])
	assert.Equal(t, uint16(0x202), c.PC)
}
