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

import "strings"

// Display resolution in pixels.
const (
	Width  = 64
	Height = 32
)

const byteWidth = Width / 8

// Screen is the monochrome display surface. Each byte holds 8 pixels of a
// row, most significant bit first:
//
//	                                     x ->
//	  00000000 00000000 00000000 00000000 ...
//	  00000000 01000000 00000000 00000000 ...
//	y ...
//
// the 1 above is at 9, 1: byte y*Width/8 + x/8, mask 0x80 >> (x%8).
type Screen [byteWidth * Height]byte

// Clear turns every pixel off.
func (s *Screen) Clear() {
	*s = Screen{}
}

// Pixel reports whether the pixel at x, y is on. Out of range coordinates
// are always off.
func (s *Screen) Pixel(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	return s[y*byteWidth+x/8]&(0x80>>uint(x%8)) != 0
}

// Draw xors an 8 pixel wide sprite onto the screen with its top left corner
// at x, y. The origin wraps around the screen but the sprite itself is
// clipped at the right and bottom edges. Returns true if any lit pixel was
// turned off.
func (s *Screen) Draw(x, y uint8, sprite []byte) (collision bool) {
	x %= Width
	y %= Height

	index := int(y)*byteWidth + int(x)/8
	bitoff := x % 8
	// the second byte only exists when the sprite doesn't start at the last
	// column byte
	split := bitoff != 0 && int(x)/8+1 < byteWidth

	for row := 0; row < len(sprite) && int(y)+row < Height; row++ {
		left := sprite[row] >> bitoff
		if s[index]&left != 0 {
			collision = true
		}
		s[index] ^= left

		if split {
			right := sprite[row] << (8 - bitoff)
			if s[index+1]&right != 0 {
				collision = true
			}
			s[index+1] ^= right
		}

		index += byteWidth
	}
	return collision
}

// Grid returns a copy of the screen as a 2D grid indexed [y][x].
func (s *Screen) Grid() (g [Height][Width]bool) {
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			g[y][x] = s.Pixel(x, y)
		}
	}
	return g
}

// HalfBlocks renders the screen as Height/2 lines of text, packing two pixel
// rows into each character with the upper and lower half block glyphs.
func (s *Screen) HalfBlocks() string {
	var b strings.Builder
	for y := 0; y < Height; y += 2 {
		for x := 0; x < Width; x++ {
			b.WriteRune(HalfBlock(s.Pixel(x, y), s.Pixel(x, y+1)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// HalfBlock returns the character showing a top and a bottom pixel.
func HalfBlock(top, bottom bool) rune {
	switch {
	case top && bottom:
		return '█'
	case top:
		return '▀'
	case bottom:
		return '▄'
	}
	return ' '
}
