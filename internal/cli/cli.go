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

// Package cli handles command line interface logic.
package cli

import (
	"flag"
	"fmt"
	"strings"

	"github.com/termchip/hachi/drivers"
)

// MaxFPS is the highest accepted -fps value.
const MaxFPS = 1000

// Options holds the parsed command line.
type Options struct {
	Program string
	Driver  string
	Cycles  int
	FPS     int

	Debug bool
	Quiet bool
	Trace bool
}

// ParseFlags parses the command line arguments, without the program name.
func ParseFlags(args []string) (Options, error) {
	flags := flag.NewFlagSet("hachi", flag.ContinueOnError)
	flags.SetOutput(new(strings.Builder))

	var opts Options
	flags.StringVar(&opts.Driver, "driver", "termloop",
		fmt.Sprintf("host used for display and input: %s", strings.Join(drivers.Names(), ", ")))
	flags.IntVar(&opts.Cycles, "cycles", 10, "instructions executed per frame")
	flags.IntVar(&opts.FPS, "fps", 60, "frames per second")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debug logging")
	flags.BoolVar(&opts.Quiet, "q", false, "only log errors")
	flags.BoolVar(&opts.Trace, "trace", false, "log every executed instruction, implies -debug")

	if err := flags.Parse(args); err != nil {
		return opts, &UsageError{flags: flags, msg: err.Error()}
	}
	if flags.NArg() != 1 {
		return opts, &UsageError{flags: flags, msg: "Specify a CHIP-8 ROM file"}
	}
	opts.Program = flags.Arg(0)

	if err := validate(&opts); err != nil {
		return opts, &UsageError{flags: flags, msg: err.Error()}
	}
	return opts, nil
}

func validate(opts *Options) error {
	if opts.Cycles <= 0 {
		return fmt.Errorf("cycles must be > 0, got %d", opts.Cycles)
	}
	if opts.FPS <= 0 || opts.FPS > MaxFPS {
		return fmt.Errorf("fps must be between 1 and %d, got %d", MaxFPS, opts.FPS)
	}
	for _, name := range drivers.Names() {
		if name == opts.Driver {
			if opts.Trace {
				opts.Debug = true
			}
			return nil
		}
	}
	return fmt.Errorf("unknown driver %s", opts.Driver)
}

// UsageError represents an error that should show usage information.
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

// Usage returns the usage text.
func (e *UsageError) Usage() string {
	var b strings.Builder
	b.WriteString("usage: hachi [options] <rom file>\n\n")
	e.flags.SetOutput(&b)
	e.flags.PrintDefaults()
	return b.String()
}
