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

// Package hachi implements a CHIP-8 virtual machine: memory, registers, the
// fetch-decode-execute engine, the 64x32 monochrome display, the 60hz timers
// and the hex keypad, plus a small host contract (Driver) used to render the
// screen and feed input.
package hachi

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"
)

// Memory layout.
const (
	// MemorySize is the size of the address space (0x000-0xFFF).
	MemorySize = 0x1000
	// ProgramStart is where programs are loaded and execution begins.
	// The first 512 bytes were occupied by the original interpreter.
	ProgramStart = 0x200
	// RegisterCount is the number of general purpose V registers.
	RegisterCount = 16
)

// -----------------------------------------------------------------------------

// An EmptyProgramErr is returned upon attempting to load a program with no
// bytes in it.
type EmptyProgramErr struct{}

func (e *EmptyProgramErr) Error() string {
	return "Empty program."
}

// An OutOfMemoryErr is returned upon attempting to load a program that
// exceeds the memory's capacity.
type OutOfMemoryErr struct {
	ProgramSize int
	Free        int
}

func (e *OutOfMemoryErr) Error() string {
	return fmt.Sprintf("Program too large (program size: %v, free memory: %v)",
		e.ProgramSize, e.Free)
}

// A BadCodeErr is returned when the machine fetches a word that does not
// decode to any instruction.
type BadCodeErr struct {
	Address uint16
	Word    uint16
}

func (e *BadCodeErr) Error() string {
	return fmt.Sprintf("Unknown instruction %04X at address %04X", e.Word,
		e.Address)
}

// An AccessErr is returned when an instruction at PC tries to access memory
// outside of the address space or to overwrite the font table.
type AccessErr struct {
	Address int
	PC      uint16
}

func (e *AccessErr) Error() string {
	return fmt.Sprintf("Invalid memory access at %04X (pc: %04X)", e.Address,
		e.PC)
}

// A StackUnderflowErr is returned when a RET is executed with an empty stack.
type StackUnderflowErr struct {
	Address uint16
}

func (e *StackUnderflowErr) Error() string {
	return fmt.Sprintf("Return with empty stack at address %04X", e.Address)
}

// -----------------------------------------------------------------------------

// Settings holds the configuration parameters for a Chip8 instance.
type Settings struct {
	// The interval between each timer tick. CHIP-8 hardware ticks at
	// 60hz = time.Second / 60.
	TimerInterval time.Duration
	// Clock is the time source of the timers. Defaults to the wall clock.
	Clock Clock
	// Rand is the source for RND VX,NN. Defaults to a time seeded source.
	Rand *rand.Rand
	// Logger receives load and trace messages. Defaults to a logger that
	// only prints errors.
	Logger *log.Logger
	// Trace logs every executed instruction at debug level.
	Trace bool
}

// Validate validates the settings.
// Returns an error when the settings aren't valid.
func (s *Settings) Validate() error {
	if s.TimerInterval <= 0 {
		return fmt.Errorf("TimerInterval must be > 0, got %v.", s.TimerInterval)
	}
	return nil
}

// DefaultSettings mimick the original CHIP-8 timing.
var DefaultSettings = &Settings{
	TimerInterval: time.Second / 60,
}

// -----------------------------------------------------------------------------

// Chip8 holds the state of the virtual machine. It is not safe for concurrent
// use: hosts that render from another goroutine must copy Screen between
// Step calls.
type Chip8 struct {
	// The memory where the font table and programs live.
	Memory [MemorySize]byte
	// V[0x0]~V[0xF] are 8-bit registers. V[0xF] doubles as the carry, borrow
	// and collision flag.
	V [RegisterCount]uint8
	// 16-bit address register. Used for memory operations.
	I uint16
	// Program counter. Holds the address of the next instruction.
	PC uint16
	// The call stack, which holds return addresses. It has no fixed depth.
	Stack []uint16
	// Timers. DT counts down at 60hz while non-zero. ST is only ever set.
	DT uint8
	ST uint8
	// Screen is the 64x32 display surface.
	Screen Screen
	// Keys reports which logical keys are held.
	Keys Keypad

	timer   timer
	rng     *rand.Rand
	logger  *log.Logger
	trace   bool
	waitReg int // register awaiting a key press, -1 when not waiting
	halted  error
}

// New initializes a new instance of Chip8 with the given settings. If settings
// is nil, DefaultSettings will be used. If keys is nil, no key is ever held.
func New(keys Keypad, s *Settings) (*Chip8, error) {
	if s == nil {
		s = DefaultSettings
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	if keys == nil {
		keys = new(KeyState)
	}

	c := &Chip8{
		Keys:   keys,
		rng:    s.Rand,
		logger: s.Logger,
		trace:  s.Trace,
		timer: timer{
			clock:    s.Clock,
			interval: s.TimerInterval,
		},
	}

	if c.timer.clock == nil {
		c.timer.clock = wallClock{}
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if c.logger == nil {
		cfg := log.DefaultConfig()
		cfg.Level = log.ErrorLevel
		c.logger = log.NewWithConfig(cfg)
	}

	c.Reset()
	return c, nil
}

// Reset turns the machine into a freshly powered on one: memory holds only
// the font table, registers, stack, timers and screen are zeroed and the
// program counter points at ProgramStart.
func (c *Chip8) Reset() {
	c.Memory = [MemorySize]byte{}
	copy(c.Memory[FontStart:], font[:])
	c.V = [RegisterCount]uint8{}
	c.I = 0
	c.PC = ProgramStart
	c.Stack = c.Stack[:0]
	c.DT = 0
	c.ST = 0
	c.Screen.Clear()
	c.waitReg = -1
	c.halted = nil
	c.timer.reset()
	c.logger.Debug("Machine reset")
}

// String returns formatted information about the instance of the emulator.
func (c *Chip8) String() string {
	return fmt.Sprintf("Chip8{Registers: [% 02X] I: %04X, Stack: % 04X, "+
		"PC: %04X, DT: %02X, ST: %02X}",
		c.V, c.I, c.Stack, c.PC, c.DT, c.ST)
}

// LoadFile reads a CHIP-8 binary file and loads it into a fresh machine.
func (c *Chip8) LoadFile(path string) error {
	program, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading program")
	}
	if err := c.Load(program); err != nil {
		return errors.Wrapf(err, "loading %s", path)
	}
	return nil
}

// Load resets the machine and copies program into memory at ProgramStart.
// The machine is left untouched when the program is rejected.
func (c *Chip8) Load(program []byte) error {
	if len(program) == 0 {
		return &EmptyProgramErr{}
	}
	if len(program) > MemorySize-ProgramStart {
		return &OutOfMemoryErr{len(program), MemorySize - ProgramStart}
	}

	c.Reset()
	copy(c.Memory[ProgramStart:], program)
	c.logger.Info("Loaded program", log.Int("size", len(program)))
	return nil
}

// Halted returns the fatal error that stopped the machine, if any.
func (c *Chip8) Halted() error { return c.halted }

// AwaitingKey reports whether the machine is blocked on LD VX,K.
func (c *Chip8) AwaitingKey() bool { return c.waitReg >= 0 }

// Step runs one instruction cycle and reconciles the timers with the clock.
// Returns whether the screen changed. After a fatal error the machine is
// halted and every further call returns the same error.
func (c *Chip8) Step() (redraw bool, err error) {
	if c.halted != nil {
		return false, c.halted
	}

	if c.waitReg >= 0 {
		c.pollKey()
	} else {
		pc := c.PC
		redraw, err = c.execute()
		if err != nil {
			// leave PC on the faulting instruction
			c.PC = pc
			c.halted = err
			c.logger.Debug("Machine halted", log.Err(err))
			return false, err
		}
	}

	c.timer.update(&c.DT)
	return redraw, nil
}

// pollKey finishes a pending LD VX,K once a key is held.
func (c *Chip8) pollKey() {
	key, ok := firstHeld(c.Keys)
	if !ok {
		return
	}
	c.V[c.waitReg] = key
	c.waitReg = -1
	c.PC += 2
}

// span returns n bytes of memory starting at addr. Writes into the font
// table are rejected.
func (c *Chip8) span(addr uint16, n int, write bool) ([]byte, error) {
	end := int(addr) + n
	if end > MemorySize {
		return nil, &AccessErr{end - 1, c.PC - 2}
	}
	if write && n > 0 && int(addr) < FontStart+len(font) {
		return nil, &AccessErr{int(addr), c.PC - 2}
	}
	return c.Memory[addr:end], nil
}
