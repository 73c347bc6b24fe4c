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
	"github.com/retroenv/retrogolib/log"
)

// opcode holds the fields of a decoded instruction word.
type opcode struct {
	word uint16
	x, y uint8  // register indices
	n    uint8  // 4-bit immediate
	nn   uint8  // 8-bit immediate
	nnn  uint16 // 12-bit address
}

func decode(b1, b2 byte) opcode {
	return opcode{
		word: uint16(b1)<<8 | uint16(b2),
		x:    b1 & 0x0F,
		y:    b2 >> 4,
		n:    b2 & 0x0F,
		nn:   b2,
		nnn:  uint16(b1&0x0F)<<8 | uint16(b2),
	}
}

// An opHandler executes one decoded instruction and reports whether the
// screen changed.
type opHandler func(c *Chip8, op opcode) (redraw bool, err error)

// families maps the top nibble of an instruction to its handler. Families
// with several instructions dispatch again on their low bits.
var families = [16]opHandler{
	0x0: opSys,
	0x1: opJp,
	0x2: opCall,
	0x3: opSeImm,
	0x4: opSneImm,
	0x5: opSeReg,
	0x6: opLdImm,
	0x7: opAddImm,
	0x8: opAlu,
	0x9: opSneReg,
	0xA: opLdI,
	0xB: opJpV0,
	0xC: opRnd,
	0xD: opDrw,
	0xE: opSkp,
	0xF: opMisc,
}

// 8XYN, keyed by N.
var aluOps = map[uint8]func(c *Chip8, x, y uint8){
	0x0: func(c *Chip8, x, y uint8) { c.V[x] = c.V[y] },
	0x1: func(c *Chip8, x, y uint8) { c.V[x] |= c.V[y] },
	0x2: func(c *Chip8, x, y uint8) { c.V[x] &= c.V[y] },
	0x3: func(c *Chip8, x, y uint8) { c.V[x] ^= c.V[y] },
	0x4: func(c *Chip8, x, y uint8) {
		// ADD VX,VY
		sum := uint16(c.V[x]) + uint16(c.V[y])
		c.V[x] = uint8(sum)
		c.V[0xF] = flag(sum > 0xFF)
	},
	0x5: func(c *Chip8, x, y uint8) {
		// SUB VX,VY
		noBorrow := c.V[x] > c.V[y]
		c.V[x] -= c.V[y]
		c.V[0xF] = flag(noBorrow)
	},
	0x6: func(c *Chip8, x, y uint8) {
		// SHR VX,VY shifts VY, not VX
		vy := c.V[y]
		c.V[x] = vy >> 1
		c.V[0xF] = vy & 0x01
	},
	0x7: func(c *Chip8, x, y uint8) {
		// SUBN VX,VY
		noBorrow := c.V[y] > c.V[x]
		c.V[x] = c.V[y] - c.V[x]
		c.V[0xF] = flag(noBorrow)
	},
	0xE: func(c *Chip8, x, y uint8) {
		// SHL VX,VY shifts VY, not VX
		vy := c.V[y]
		c.V[x] = vy << 1
		c.V[0xF] = vy >> 7
	},
}

// EXNN and FXNN, keyed by NN.
var (
	keyOps = map[uint8]func(c *Chip8, x uint8) bool{
		0x9E: func(c *Chip8, x uint8) bool { return c.Keys.Held(c.V[x] & 0x0F) },
		0xA1: func(c *Chip8, x uint8) bool { return !c.Keys.Held(c.V[x] & 0x0F) },
	}
	miscOps = map[uint8]func(c *Chip8, x uint8) error{
		0x07: opLdVxDt,
		0x0A: opLdVxK,
		0x15: opLdDtVx,
		0x18: opLdStVx,
		0x1E: opAddIVx,
		0x29: opLdFVx,
		0x33: opLdBVx,
		0x55: opLdIVx,
		0x65: opLdVxI,
	}
)

func flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// execute fetches the instruction at PC, advances PC past it and runs it.
func (c *Chip8) execute() (bool, error) {
	if int(c.PC)+1 >= MemorySize {
		return false, &AccessErr{int(c.PC), c.PC}
	}

	op := decode(c.Memory[c.PC], c.Memory[c.PC+1])
	if c.trace {
		c.logger.Debug("exec", log.Hex("pc", c.PC), log.Hex("opcode", op.word),
			log.String("op", op.String()))
	}
	c.PC += 2

	return families[op.word>>12](c, op)
}

func (c *Chip8) badCode(op opcode) error {
	return &BadCodeErr{Address: c.PC - 2, Word: op.word}
}

func (c *Chip8) skipIf(cond bool) {
	if cond {
		c.PC += 2
	}
}

// -----------------------------------------------------------------------------

func opSys(c *Chip8, op opcode) (bool, error) {
	switch op.word {
	case 0x00E0:
		// CLS
		c.Screen.Clear()
		return true, nil
	case 0x00EE:
		// RET
		if len(c.Stack) == 0 {
			return false, &StackUnderflowErr{c.PC - 2}
		}
		c.PC = c.Stack[len(c.Stack)-1]
		c.Stack = c.Stack[:len(c.Stack)-1]
		return false, nil
	}
	// SYS NNN calls into machine code, which we don't have.
	return false, c.badCode(op)
}

func opJp(c *Chip8, op opcode) (bool, error) {
	c.PC = op.nnn
	return false, nil
}

func opCall(c *Chip8, op opcode) (bool, error) {
	c.Stack = append(c.Stack, c.PC)
	c.PC = op.nnn
	return false, nil
}

func opSeImm(c *Chip8, op opcode) (bool, error) {
	c.skipIf(c.V[op.x] == op.nn)
	return false, nil
}

func opSneImm(c *Chip8, op opcode) (bool, error) {
	c.skipIf(c.V[op.x] != op.nn)
	return false, nil
}

func opSeReg(c *Chip8, op opcode) (bool, error) {
	if op.n != 0 {
		return false, c.badCode(op)
	}
	c.skipIf(c.V[op.x] == c.V[op.y])
	return false, nil
}

func opLdImm(c *Chip8, op opcode) (bool, error) {
	c.V[op.x] = op.nn
	return false, nil
}

func opAddImm(c *Chip8, op opcode) (bool, error) {
	// no carry flag for this one
	c.V[op.x] += op.nn
	return false, nil
}

func opAlu(c *Chip8, op opcode) (bool, error) {
	fn, ok := aluOps[op.n]
	if !ok {
		return false, c.badCode(op)
	}
	fn(c, op.x, op.y)
	return false, nil
}

func opSneReg(c *Chip8, op opcode) (bool, error) {
	if op.n != 0 {
		return false, c.badCode(op)
	}
	c.skipIf(c.V[op.x] != c.V[op.y])
	return false, nil
}

func opLdI(c *Chip8, op opcode) (bool, error) {
	c.I = op.nnn
	return false, nil
}

func opJpV0(c *Chip8, op opcode) (bool, error) {
	c.PC = (op.nnn + uint16(c.V[0])) % MemorySize
	return false, nil
}

func opRnd(c *Chip8, op opcode) (bool, error) {
	c.V[op.x] = uint8(c.rng.Intn(256)) & op.nn
	return false, nil
}

func opDrw(c *Chip8, op opcode) (bool, error) {
	x, y := c.V[op.x], c.V[op.y]
	sprite, err := c.span(c.I, int(op.n), false)
	if err != nil {
		return false, err
	}
	c.V[0xF] = flag(c.Screen.Draw(x, y, sprite))
	return true, nil
}

func opSkp(c *Chip8, op opcode) (bool, error) {
	fn, ok := keyOps[op.nn]
	if !ok {
		return false, c.badCode(op)
	}
	c.skipIf(fn(c, op.x))
	return false, nil
}

func opMisc(c *Chip8, op opcode) (bool, error) {
	fn, ok := miscOps[op.nn]
	if !ok {
		return false, c.badCode(op)
	}
	return false, fn(c, op.x)
}

// -----------------------------------------------------------------------------

func opLdVxDt(c *Chip8, x uint8) error {
	c.V[x] = c.DT
	return nil
}

// opLdVxK blocks on a key press. Nothing is suspended: the machine rewinds
// PC onto this instruction and Step polls the keypad until a key is held.
func opLdVxK(c *Chip8, x uint8) error {
	if key, ok := firstHeld(c.Keys); ok {
		c.V[x] = key
		return nil
	}
	c.waitReg = int(x)
	c.PC -= 2
	return nil
}

func opLdDtVx(c *Chip8, x uint8) error {
	c.DT = c.V[x]
	return nil
}

func opLdStVx(c *Chip8, x uint8) error {
	c.ST = c.V[x]
	return nil
}

func opAddIVx(c *Chip8, x uint8) error {
	i := uint32(c.I) + uint32(c.V[x])
	if i >= MemorySize {
		// range overflow wraps and raises VF, otherwise VF is left alone
		i %= MemorySize
		c.V[0xF] = 1
	}
	c.I = uint16(i)
	return nil
}

func opLdFVx(c *Chip8, x uint8) error {
	c.I = FontStart + uint16(c.V[x]&0x0F)*GlyphBytes
	return nil
}

func opLdBVx(c *Chip8, x uint8) error {
	mem, err := c.span(c.I, 3, true)
	if err != nil {
		return err
	}
	value := c.V[x]
	mem[0] = value / 100       // hundreds
	mem[1] = (value / 10) % 10 // tens
	mem[2] = value % 10        // ones
	return nil
}

func opLdIVx(c *Chip8, x uint8) error {
	mem, err := c.span(c.I, int(x)+1, true)
	if err != nil {
		return err
	}
	copy(mem, c.V[:x+1])
	return nil
}

func opLdVxI(c *Chip8, x uint8) error {
	mem, err := c.span(c.I, int(x)+1, false)
	if err != nil {
		return err
	}
	copy(c.V[:x+1], mem)
	return nil
}
