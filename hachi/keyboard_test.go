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

	"github.com/retroenv/retrogolib/assert"
)

func TestKeyState(t *testing.T) {
	var k KeyState
	k.Press(0x3)
	k.Press(0xF)
	assert.True(t, k.Held(0x3))
	assert.True(t, k.Held(0xF))
	assert.False(t, k.Held(0x4))
	assert.Equal(t, KeyState(Key3|KeyF), k)

	k.Release(0x3)
	assert.False(t, k.Held(0x3))

	k.Set(0x4, true)
	assert.True(t, k.Held(0x4))
	k.Set(0x4, false)
	assert.False(t, k.Held(0x4))

	// only the low nibble matters
	k.Press(0x1A)
	assert.True(t, k.Held(0xA))
}

func TestFirstHeld(t *testing.T) {
	var k KeyState
	_, ok := firstHeld(k)
	assert.False(t, ok)

	k.Press(0xE)
	k.Press(0x2)
	key, ok := firstHeld(k)
	assert.True(t, ok)
	assert.Equal(t, uint8(0x2), key)
}

func TestKeyMap(t *testing.T) {
	tests := []struct {
		phys rune
		key  uint8
		ok   bool
	}{
		{'x', 0x0, true},
		{'1', 0x1, true},
		{'Q', 0x4, true},
		{'4', 0xC, true},
		{'v', 0xF, true},
		{'p', 0, false},
	}

	for _, tt := range tests {
		key, ok := DefaultKeyMap.Logical(tt.phys)
		assert.Equal(t, tt.ok, ok)
		assert.Equal(t, tt.key, key)
	}

	assert.Equal(t, 'r', DefaultKeyMap.Physical(0xD))
	assert.Equal(t, [4]uint8{0xA, 0x0, 0xB, 0xF}, DefaultKeyMap.Layout()[3])
}

func TestKeyMap_LayoutMatchesKeyboard(t *testing.T) {
	rows := []string{"1234", "qwer", "asdf", "zxcv"}
	for i, row := range DefaultKeyMap.Layout() {
		for j, key := range row {
			assert.Equal(t, rune(rows[i][j]), DefaultKeyMap.Physical(key))
		}
	}
}
