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

// Package main implements a terminal CHIP-8 emulator.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
	"github.com/termchip/hachi/drivers"
	"github.com/termchip/hachi/hachi"
	"github.com/termchip/hachi/internal/cli"
	"github.com/termchip/hachi/internal/config"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	opts, err := cli.ParseFlags(os.Args[1:])
	if err != nil {
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			printBanner(opts)
			fmt.Printf("%s\n\n%s", usageErr.Error(), usageErr.Usage())
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	printBanner(opts)

	if err := run(opts, logger); err != nil {
		// the host has restored the terminal by now
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Bye!")
}

func printBanner(opts cli.Options) {
	if opts.Quiet {
		return
	}
	fmt.Println("[----------------------------------]")
	fmt.Println("[ hachi - terminal CHIP-8 emulator ]")
	fmt.Printf("[----------------------------------]\n\n")
	fmt.Printf("version: %s\n\n", buildinfo.Version(version, commit, date))
}

func run(opts cli.Options, logger *log.Logger) error {
	ctx := app.Context()

	keys := new(hachi.KeyState)
	settings := *hachi.DefaultSettings
	settings.Logger = logger
	settings.Trace = opts.Trace

	c, err := hachi.New(keys, &settings)
	if err != nil {
		return err
	}
	if err := c.LoadFile(opts.Program); err != nil {
		return err
	}

	host, err := drivers.Open(opts.Driver, drivers.Options{
		Keys:   keys,
		Logger: logger,
		Title:  opts.Program,
	})
	if err != nil {
		return err
	}

	logger.Debug("Starting emulation",
		log.String("driver", opts.Driver),
		log.Int("cycles", opts.Cycles),
		log.Int("fps", opts.FPS))

	if err := host.Run(ctx, c, opts.Cycles, opts.FPS); err != nil {
		logger.Debug("Machine state", log.String("state", c.String()))
		return err
	}
	return nil
}
