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

import "time"

// A Clock supplies the current time to the timers.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// timer decrements the delay timer once per interval of clock time,
// independently of how many instructions run in between.
type timer struct {
	clock    Clock
	interval time.Duration
	last     time.Time
}

func (t *timer) reset() {
	t.last = t.clock.Now()
}

// update catches up on every whole interval elapsed since the last tick.
// Only the delay timer counts down, ST keeps whatever was stored in it.
func (t *timer) update(dt *uint8) {
	now := t.clock.Now()
	for now.Sub(t.last) >= t.interval {
		if *dt > 0 {
			*dt--
		}
		t.last = t.last.Add(t.interval)
	}
}
