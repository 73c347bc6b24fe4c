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

// Package ansi implements a hachi host that draws with plain ANSI escape
// sequences and reads keys from stdin in cbreak mode.
//
// Terminals only report key presses, so a key counts as held for
// ReleaseAfter after its last press. The arrow keys and Enter double as
// 8, 2, 4, 6 and 5. A lone Esc or Ctrl+C quit.
package ansi

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"
	"github.com/termchip/hachi/hachi"
)

// Name is the name the driver is registered under in package drivers.
const Name = "ansi"

// ReleaseAfter is how long a key stays held after its last press event.
const ReleaseAfter = 100 * time.Millisecond

// EscWait is how long an Esc waits for the rest of an escape sequence
// before it counts as a key of its own.
const EscWait = 50 * time.Millisecond

// escape sequences
const (
	enterScreen = "\x1b[?1049h\x1b7\x1b[?25l" // alternate screen, save cursor, hide cursor
	leaveScreen = "\x1b[?25h\x1b8\x1b[?1049l"
	clearHome   = "\x1b[H\x1b[2J"
	keyEsc      = 0x1b
)

// number of steps averaged in the timing readout
const timingWindow = 100

// longest title shown under the screen, in runes
const titleWidth = 15

// escape sequence parser states
const (
	escNone  = iota
	escStart // got Esc
	escCSI   // inside Esc [ ...
	escSS3   // got Esc O
)

// arrow keys by the final byte of their escape sequence
var arrowKeys = map[rune]uint8{
	'A': 0x8, // up
	'B': 0x2, // down
	'C': 0x6, // right
	'D': 0x4, // left
}

// An Option configures a Driver.
type Option func(*Driver) error

// Input sets the reader keys are read from. The default is os.Stdin.
func Input(r io.Reader) Option {
	return func(d *Driver) error {
		d.in = r
		return nil
	}
}

// Output sets the writer the screen is drawn to. The default is os.Stdout.
func Output(w io.Writer) Option {
	return func(d *Driver) error {
		d.out = bufio.NewWriter(w)
		return nil
	}
}

// Title shows the base name of the program path under the screen. An empty
// path shows nothing.
func Title(path string) Option {
	return func(d *Driver) error {
		if path != "" {
			d.title = filepath.Base(path)
		}
		return nil
	}
}

// Keys replaces the physical key bindings.
func Keys(m hachi.KeyMap) Option {
	return func(d *Driver) error {
		d.keyMap = m
		return nil
	}
}

// A Driver renders the screen with half block characters and feeds key
// presses into a KeyState.
type Driver struct {
	keys    *hachi.KeyState
	keyMap  hachi.KeyMap
	logger  *log.Logger
	in      io.Reader
	out     *bufio.Writer
	title   string
	now     func() time.Time
	restore func()
	cancel  context.CancelFunc

	runes   chan rune
	done    chan struct{}
	stopped chan struct{}
	pressed map[uint8]time.Time
	esc     int
	escAt   time.Time

	stepTimes [timingWindow]time.Duration
	steps     int
	lastStep  time.Time
}

// New returns a driver that feeds key presses into keys.
func New(keys *hachi.KeyState, logger *log.Logger, opts ...Option) (*Driver, error) {
	d := &Driver{
		keys:    keys,
		keyMap:  hachi.DefaultKeyMap,
		logger:  logger,
		in:      os.Stdin,
		out:     bufio.NewWriter(os.Stdout),
		now:     time.Now,
		runes:   make(chan rune, 64),
		pressed: make(map[uint8]time.Time),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// OnInit switches the terminal to cbreak mode, enters the alternate screen
// and starts reading keys.
func (d *Driver) OnInit(c *hachi.Chip8) error {
	if f, ok := d.in.(*os.File); ok {
		restore, err := setCbreak(f.Fd())
		if err != nil {
			d.logger.Debug("Keeping terminal mode", log.Err(err))
		} else {
			d.restore = restore
		}
	}

	d.done = make(chan struct{})
	d.stopped = make(chan struct{})
	go d.readKeys(d.in, d.done, d.stopped)

	d.lastStep = d.now()
	if _, err := d.out.WriteString(enterScreen); err != nil {
		return errors.Wrap(err, "writing to terminal")
	}
	d.UpdateScreen(c)
	d.logger.Debug("ANSI driver initialized")
	return nil
}

// readKeys forwards runes from r until it fails or done is closed. A read
// that is already blocked returns with the next key press.
func (d *Driver) readKeys(r io.Reader, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	br := bufio.NewReader(r)
	for {
		ch, _, err := br.ReadRune()
		if err != nil {
			return
		}
		select {
		case <-done:
			return
		default:
		}
		select {
		case d.runes <- ch:
		case <-done:
			return
		}
	}
}

// OnUpdate applies pending key presses, releases stale keys and records the
// time spent since the previous step.
func (d *Driver) OnUpdate(c *hachi.Chip8) {
	now := d.now()
	d.stepTimes[d.steps%timingWindow] = now.Sub(d.lastStep)
	d.steps++
	d.lastStep = now

	for pending := true; pending; {
		select {
		case ch := <-d.runes:
			d.handleRune(ch, now)
		default:
			pending = false
		}
	}
	d.expireEsc(now)
	d.releaseExpired(now)
}

// handleRune feeds one input rune through the escape sequence parser and
// presses the key it maps to.
func (d *Driver) handleRune(ch rune, now time.Time) {
	switch d.esc {
	case escStart:
		switch ch {
		case '[':
			d.esc = escCSI
			return
		case 'O':
			d.esc = escSS3
			return
		}
		// the Esc was a key of its own
		d.esc = escNone
		d.quit()

	case escCSI:
		// parameter and intermediate bytes until the final byte
		if ch >= 0x40 && ch <= 0x7E {
			d.esc = escNone
			d.pressArrow(ch, now)
		}
		return

	case escSS3:
		d.esc = escNone
		d.pressArrow(ch, now)
		return
	}

	switch ch {
	case keyEsc:
		d.esc = escStart
		d.escAt = now
		return
	case '\r', '\n':
		d.press(0x5, now)
		return
	}
	if key, ok := d.keyMap.Logical(ch); ok {
		d.press(key, now)
	}
}

// expireEsc quits on an Esc that was not followed by a sequence in time.
func (d *Driver) expireEsc(now time.Time) {
	if d.esc == escStart && now.Sub(d.escAt) > EscWait {
		d.esc = escNone
		d.quit()
	}
}

func (d *Driver) pressArrow(final rune, now time.Time) {
	if key, ok := arrowKeys[final]; ok {
		d.press(key, now)
	}
}

func (d *Driver) press(key uint8, now time.Time) {
	d.keys.Press(key)
	d.pressed[key] = now
}

func (d *Driver) quit() {
	if d.cancel != nil {
		d.cancel()
	}
}

func (d *Driver) releaseExpired(now time.Time) {
	for key, t := range d.pressed {
		if now.Sub(t) > ReleaseAfter {
			d.keys.Release(key)
			delete(d.pressed, key)
		}
	}
}

// UpdateScreen redraws the whole terminal.
func (d *Driver) UpdateScreen(c *hachi.Chip8) {
	_, _ = d.out.WriteString(d.render(c))
	if err := d.out.Flush(); err != nil {
		d.logger.Error("Drawing failed", log.Err(err))
	}
}

// render returns the frame: caption, screen, status line and controls.
func (d *Driver) render(c *hachi.Chip8) string {
	var b strings.Builder
	b.WriteString(clearHome)
	b.WriteString("                   ~~~  CHIP-8 emulator  ~~~\n")
	b.WriteString(c.Screen.HalfBlocks())

	title := d.title
	if r := []rune(title); len(r) > titleWidth {
		title = string(r[len(r)-titleWidth:])
	}
	fmt.Fprintf(&b, "%-15s         Ctrl-C to exit                %.0fus/step\n",
		title, d.averageStep().Seconds()*1e6)

	b.WriteString("Controls: ")
	for i, row := range d.keyMap.Layout() {
		for _, key := range row {
			fmt.Fprintf(&b, "%c ", unicode.ToUpper(d.keyMap.Physical(key)))
		}
		if i < 3 {
			b.WriteString("\n          ")
		}
	}
	b.WriteByte('\n')
	return b.String()
}

func (d *Driver) averageStep() time.Duration {
	n := d.steps
	if n > timingWindow {
		n = timingWindow
	}
	if n == 0 {
		return 0
	}
	var sum time.Duration
	for _, t := range d.stepTimes[:n] {
		sum += t
	}
	return sum / time.Duration(n)
}

// Close stops the key reader, leaves the alternate screen and restores the
// terminal mode.
func (d *Driver) Close() error {
	if d.done != nil {
		close(d.done)
		d.done = nil
	}
	_, _ = d.out.WriteString(leaveScreen)
	err := d.out.Flush()
	if d.restore != nil {
		d.restore()
		d.restore = nil
	}
	return errors.Wrap(err, "restoring terminal")
}

// Run steps the machine at fps frames per second, cycles instructions per
// frame, until ctx is cancelled, Esc is pressed or the machine halts.
func (d *Driver) Run(ctx context.Context, c *hachi.Chip8, cycles, fps int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.cancel = cancel

	return hachi.Run(ctx, c, d, cycles, time.Second/time.Duration(fps))
}
