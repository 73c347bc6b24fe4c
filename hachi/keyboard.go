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

import "unicode"

// A Keypad reports which of the 16 logical keys (0x0-0xF) are held.
// The machine only ever reads from it.
type Keypad interface {
	Held(key uint8) bool
}

// Key flags for the KeyState bitfield.
const (
	Key0 = 1 << iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

// KeyState is a Keypad backed by a bitfield, see the Key flags. Hosts own it
// and update it between steps.
type KeyState uint16

// Held reports whether the logical key is held.
func (k KeyState) Held(key uint8) bool {
	return k&(1<<(key&0x0F)) != 0
}

// Press marks the logical key as held.
func (k *KeyState) Press(key uint8) { *k |= 1 << (key & 0x0F) }

// Release marks the logical key as released.
func (k *KeyState) Release(key uint8) { *k &^= 1 << (key & 0x0F) }

// Set presses or releases the logical key.
func (k *KeyState) Set(key uint8, held bool) {
	if held {
		k.Press(key)
	} else {
		k.Release(key)
	}
}

// firstHeld returns the lowest logical key that is held.
func firstHeld(p Keypad) (uint8, bool) {
	for key := uint8(0); key < 16; key++ {
		if p.Held(key) {
			return key, true
		}
	}
	return 0, false
}

// -----------------------------------------------------------------------------

// A KeyMap assigns a physical keyboard key to each logical key.
type KeyMap [16]rune

// DefaultKeyMap lays the hex keypad out on the left of a qwerty keyboard:
//
//	1 2 3 4        1 2 3 C
//	q w e r   ->   4 5 6 D
//	a s d f        7 8 9 E
//	z x c v        A 0 B F
var DefaultKeyMap = KeyMap{
	'x', '1', '2', '3', 'q', 'w', 'e', 'a',
	's', 'd', 'z', 'c', '4', 'r', 'f', 'v',
}

var keyLayout = [4][4]uint8{
	{0x1, 0x2, 0x3, 0xC},
	{0x4, 0x5, 0x6, 0xD},
	{0x7, 0x8, 0x9, 0xE},
	{0xA, 0x0, 0xB, 0xF},
}

// Logical returns the logical key bound to the physical key r. Letters match
// regardless of case.
func (m KeyMap) Logical(r rune) (uint8, bool) {
	r = unicode.ToLower(r)
	for key, phys := range m {
		if phys == r {
			return uint8(key), true
		}
	}
	return 0, false
}

// Physical returns the physical key bound to a logical key.
func (m KeyMap) Physical(key uint8) rune {
	return m[key&0x0F]
}

// Layout returns the logical keys as they sit on the original 4x4 keypad.
func (m KeyMap) Layout() [4][4]uint8 { return keyLayout }
