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

// Package drivers selects a hachi host by name.
package drivers

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"
	"github.com/termchip/hachi/drivers/ansi"
	"github.com/termchip/hachi/drivers/termloop"
	"github.com/termchip/hachi/hachi"
)

// A Host is a Driver that also owns the run loop.
type Host interface {
	hachi.Driver
	// Run executes the machine until the user quits or it halts.
	Run(ctx context.Context, c *hachi.Chip8, cycles, fps int) error
}

// Options are passed to every host constructor.
type Options struct {
	// Keys receives the key presses.
	Keys *hachi.KeyState
	// Logger is used by the host.
	Logger *log.Logger
	// Title is the program path shown by the host.
	Title string
}

var hosts = map[string]func(opts Options) (Host, error){
	termloop.Name: func(opts Options) (Host, error) {
		d := termloop.New(opts.Keys, opts.Logger)
		if opts.Title != "" {
			d.SetTitle(opts.Title)
		}
		return d, nil
	},
	ansi.Name: func(opts Options) (Host, error) {
		var options []ansi.Option
		if opts.Title != "" {
			options = append(options, ansi.Title(opts.Title))
		}
		d, err := ansi.New(opts.Keys, opts.Logger, options...)
		if err != nil {
			return nil, err
		}
		return d, nil
	},
}

// Names returns the names of all hosts, sorted.
func Names() []string {
	names := make([]string, 0, len(hosts))
	for name := range hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open returns the host registered under name.
func Open(name string, opts Options) (Host, error) {
	open, ok := hosts[name]
	if !ok {
		return nil, errors.Errorf("driver %s not found", name)
	}
	if opts.Keys == nil {
		opts.Keys = new(hachi.KeyState)
	}
	host, err := open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening driver %s", name)
	}
	return host, nil
}
