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
	"context"
	"time"
)

// A Driver is the host side of the emulator: it renders the screen and feeds
// the keypad. Drivers are passed explicitly to Frame and Run.
type Driver interface {
	// Called before the emulator starts executing the program.
	OnInit(c *Chip8) error
	// Called before every instruction, should be used for input polling and
	// similar tasks.
	OnUpdate(c *Chip8)
	// Called when the program modified the screen.
	UpdateScreen(c *Chip8)
	// Releases whatever the driver acquired in OnInit.
	Close() error
}

// -----------------------------------------------------------------------------

// A NullDriver ignores all calls.
type NullDriver struct{}

func (NullDriver) OnInit(c *Chip8) error { return nil }
func (NullDriver) OnUpdate(c *Chip8)     {}
func (NullDriver) UpdateScreen(c *Chip8) {}
func (NullDriver) Close() error          { return nil }

// -----------------------------------------------------------------------------

// Frame runs up to cycles instructions. The driver is asked to redraw once,
// at the end, if any of them changed the screen. Returns the first fatal
// error.
func Frame(c *Chip8, drv Driver, cycles int) error {
	redraw := false
	defer func() {
		if redraw {
			drv.UpdateScreen(c)
		}
	}()

	for i := 0; i < cycles; i++ {
		drv.OnUpdate(c)
		changed, err := c.Step()
		if err != nil {
			return err
		}
		redraw = redraw || changed
	}
	return nil
}

// Run initializes the driver and runs one Frame every frameTime until ctx is
// cancelled or the machine halts. Returns the fatal error, if any.
func Run(ctx context.Context, c *Chip8, drv Driver, cycles int,
	frameTime time.Duration) (err error) {

	if err = drv.OnInit(c); err != nil {
		return err
	}
	defer func() {
		if cerr := drv.Close(); err == nil {
			err = cerr
		}
	}()

	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	for {
		if err = Frame(c, drv, cycles); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
