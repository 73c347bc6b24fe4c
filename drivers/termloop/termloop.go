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

// Package termloop implements a terminal host for hachi on top of termloop.
//
// The emulator runs inside termloop's render loop: every frame executes a
// batch of instructions and repaints the screen with half block characters
// when it changed. Ctrl+C quits.
//
// termbox only reports key presses, so a key counts as held for a short
// while after its last press event and is released automatically.
package termloop

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	tl "github.com/JoelOtter/termloop"
	"github.com/retroenv/retrogolib/log"
	"github.com/termchip/hachi/hachi"
)

// Name is the name the driver is registered under in package drivers.
const Name = "termloop"

// ReleaseAfter is how long a key stays held after its last press event.
const ReleaseAfter = 100 * time.Millisecond

// screen preview position
const (
	screenX = 0
	screenY = 2
)

// A Driver is a terminal-based host that uses the termloop library.
// It shows the machine state and the screen in real time.
type Driver struct {
	keys    *hachi.KeyState
	keyMap  hachi.KeyMap
	logger  *log.Logger
	now     func() time.Time
	caption string

	g         *tl.Game
	title     *tl.Text
	registers *tl.Text
	pointers  *tl.Text
	status    *tl.Text
	controls  []*tl.Text

	pressed map[uint8]time.Time
	screen  hachi.Screen
	err     error
}

// New returns a driver that feeds key events into keys.
func New(keys *hachi.KeyState, logger *log.Logger) *Driver {
	return &Driver{
		keys:    keys,
		keyMap:  hachi.DefaultKeyMap,
		logger:  logger,
		now:     time.Now,
		caption: "~~~  CHIP-8 emulator  ~~~",
		pressed: make(map[uint8]time.Time),
	}
}

// SetTitle shows the program path next to the caption.
func (d *Driver) SetTitle(path string) {
	d.caption = fmt.Sprintf("~~~  CHIP-8 emulator  ~~~  %s", filepath.Base(path))
}

// SetKeyMap replaces the physical key bindings.
func (d *Driver) SetKeyMap(m hachi.KeyMap) { d.keyMap = m }

// OnInit builds the termloop game and its entities.
func (d *Driver) OnInit(c *hachi.Chip8) error {
	d.g = tl.NewGame()
	scr := d.g.Screen()

	d.title = tl.NewText(0, 0, d.caption, tl.ColorDefault, tl.ColorDefault)
	scr.AddEntity(d.title)

	// chip info, right of the screen preview
	infoX := screenX + hachi.Width + 2
	d.registers = tl.NewText(infoX, screenY, "", tl.ColorDefault, tl.ColorDefault)
	scr.AddEntity(d.registers)
	d.pointers = tl.NewText(infoX, screenY+1, "", tl.ColorDefault, tl.ColorDefault)
	scr.AddEntity(d.pointers)
	d.status = tl.NewText(infoX, screenY+2, "", tl.ColorDefault, tl.ColorDefault)
	scr.AddEntity(d.status)

	// controls
	d.controls = nil
	layout := d.keyMap.Layout()
	for i, row := range layout {
		text := ""
		for _, key := range row {
			text += fmt.Sprintf("%c ", d.keyMap.Physical(key))
		}
		t := tl.NewText(infoX, screenY+4+i, text, tl.ColorDefault, tl.ColorDefault)
		d.controls = append(d.controls, t)
		scr.AddEntity(t)
	}

	scr.AddEntity(&display{d})
	d.screen = c.Screen
	d.logger.Debug("Termloop driver initialized")
	return nil
}

// OnUpdate releases keys whose last press event is too old.
func (d *Driver) OnUpdate(c *hachi.Chip8) {
	if len(d.pressed) == 0 {
		return
	}
	now := d.now()
	for key, t := range d.pressed {
		if now.Sub(t) > ReleaseAfter {
			d.keys.Release(key)
			delete(d.pressed, key)
		}
	}
}

// UpdateScreen takes a snapshot of the screen for the next render.
func (d *Driver) UpdateScreen(c *hachi.Chip8) {
	d.screen = c.Screen
}

// Close is a no-op, termloop restores the terminal when the game ends.
func (d *Driver) Close() error { return nil }

// Run starts the termloop game and blocks until the user quits or ctx is
// cancelled and a key is pressed. Returns the fatal error of the machine,
// if any.
func (d *Driver) Run(ctx context.Context, c *hachi.Chip8, cycles, fps int) error {
	if err := d.OnInit(c); err != nil {
		return err
	}
	defer d.Close()

	scr := d.g.Screen()
	scr.SetFps(float64(fps))
	scr.AddEntity(&machine{d: d, c: c, ctx: ctx, cycles: cycles})

	d.g.Start()
	return d.err
}

// press handles a key event.
func (d *Driver) press(ev tl.Event) {
	key, ok := d.logicalKey(ev)
	if !ok {
		return
	}
	d.keys.Press(key)
	d.pressed[key] = d.now()
}

// logicalKey maps a termloop key event to a logical key. The arrow keys and
// enter double as 8, 4, 6, 2 and 5, which most games use for directions.
func (d *Driver) logicalKey(ev tl.Event) (uint8, bool) {
	switch ev.Key {
	case tl.KeyArrowUp:
		return 0x8, true
	case tl.KeyArrowDown:
		return 0x2, true
	case tl.KeyArrowLeft:
		return 0x4, true
	case tl.KeyArrowRight:
		return 0x6, true
	case tl.KeyEnter:
		return 0x5, true
	}
	if ev.Ch == 0 {
		return 0, false
	}
	return d.keyMap.Logical(ev.Ch)
}

func (d *Driver) updateInfo(c *hachi.Chip8) {
	d.registers.SetText(fmt.Sprintf("V: % 02X", c.V))
	d.pointers.SetText(fmt.Sprintf("I: %04X PC: %04X DT: %02X ST: %02X SP: %v",
		c.I, c.PC, c.DT, c.ST, len(c.Stack)))

	switch {
	case d.err != nil:
		d.status.SetText(fmt.Sprintf("Error: %v", d.err))
	case c.AwaitingKey():
		d.status.SetText("Waiting for a key")
	default:
		d.status.SetText("Ctrl-C to exit")
	}
}

// -----------------------------------------------------------------------------

// machine is the entity that runs the emulator on every frame and receives
// key events.
type machine struct {
	d      *Driver
	c      *hachi.Chip8
	ctx    context.Context
	cycles int
}

func (m *machine) Draw(s *tl.Screen) {
	if m.d.err == nil && m.ctx.Err() == nil {
		m.d.err = hachi.Frame(m.c, m.d, m.cycles)
		if m.d.err != nil {
			m.d.logger.Debug("Emulation stopped", log.Err(m.d.err))
		}
	}
	m.d.updateInfo(m.c)
}

func (m *machine) Tick(ev tl.Event) {
	if ev.Type == tl.EventKey {
		m.d.press(ev)
	}
}

// display renders the last screen snapshot with half block characters.
type display struct{ d *Driver }

func (p *display) Draw(s *tl.Screen) {
	for y := 0; y < hachi.Height; y += 2 {
		for x := 0; x < hachi.Width; x++ {
			cell := &tl.Cell{
				Fg: tl.ColorWhite,
				Bg: tl.ColorDefault,
				Ch: hachi.HalfBlock(p.d.screen.Pixel(x, y), p.d.screen.Pixel(x, y+1)),
			}
			s.RenderCell(screenX+x, screenY+y/2, cell)
		}
	}
}

func (p *display) Tick(ev tl.Event) {}
