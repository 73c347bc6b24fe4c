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
	"fmt"
	"strings"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// fxOperands holds the operand syntax of the FX family, which reuses LD and
// ADD with special registers.
var fxOperands = map[uint8]string{
	0x07: "V%1X,DT",
	0x0A: "V%1X,K",
	0x15: "DT,V%1X",
	0x18: "ST,V%1X",
	0x1E: "I,V%1X",
	0x29: "F,V%1X",
	0x33: "B,V%1X",
	0x55: "[I],V%1X",
	0x65: "V%1X,[I]",
}

// instruction returns the instruction set entry matching word, nil if no
// encoding matches.
func instruction(word uint16) *chip8.Instruction {
	for _, op := range chip8.Opcodes[int(word>>12)] {
		if op.Info.Mask&word == op.Info.Value {
			return op.Instruction
		}
	}
	return nil
}

// String returns the assembly form of the instruction, or DW followed by
// the raw word when it does not decode.
func (op opcode) String() string {
	ins := instruction(op.word)
	if ins == nil {
		return fmt.Sprintf("DW %04X", op.word)
	}

	name := strings.ToUpper(ins.Name)
	if args := op.operands(); args != "" {
		return name + " " + args
	}
	return name
}

func (op opcode) operands() string {
	switch op.word >> 12 {
	case 0x0:
		if op.word == 0x00E0 || op.word == 0x00EE {
			return ""
		}
		return fmt.Sprintf("%03X", op.nnn)
	case 0x1, 0x2:
		return fmt.Sprintf("%03X", op.nnn)
	case 0x3, 0x4, 0x6, 0x7, 0xC:
		return fmt.Sprintf("V%1X,%02X", op.x, op.nn)
	case 0x5, 0x8, 0x9:
		return fmt.Sprintf("V%1X,V%1X", op.x, op.y)
	case 0xA:
		return fmt.Sprintf("I,%03X", op.nnn)
	case 0xB:
		return fmt.Sprintf("V0,%03X", op.nnn)
	case 0xD:
		return fmt.Sprintf("V%1X,V%1X,%1X", op.x, op.y, op.n)
	case 0xF:
		if f, ok := fxOperands[op.nn]; ok {
			return fmt.Sprintf(f, op.x)
		}
	}
	return fmt.Sprintf("V%1X", op.x)
}
