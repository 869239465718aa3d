// Package timer implements the two chess clocks of a game.
package timer

import (
	"time"

	"github.com/hailam/chessplay/internal/board"
)

// Timer holds one countdown per color. At most one of them runs at a time.
type Timer struct {
	remaining [2]time.Duration
	increment time.Duration
	active    board.Color
	running   bool
	started   bool
	since     time.Time // when the active clock was last resumed

	now func() time.Time
}

// Option configures a Timer.
type Option func(*Timer)

// WithIncrement adds d to a player's clock each time they hand over the move.
func WithIncrement(d time.Duration) Option {
	return func(t *Timer) {
		t.increment = d
	}
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Timer) {
		t.now = now
	}
}

// New creates a stopped timer giving each color d, with White active.
func New(d time.Duration, opts ...Option) *Timer {
	t := &Timer{
		remaining: [2]time.Duration{d, d},
		active:    board.White,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start resumes the active color's clock. It is a no-op if already running.
func (t *Timer) Start() {
	if t.running {
		return
	}
	t.running = true
	t.started = true
	t.since = t.now()
}

// Stop pauses the active clock, charging it the elapsed time.
func (t *Timer) Stop() {
	if !t.running {
		return
	}
	t.remaining[t.active] = t.inFlight()
	t.running = false
}

// NextPlayer pauses the active clock, credits the increment and hands the
// clock to the other color. The other clock only starts if this one was
// running.
func (t *Timer) NextPlayer() {
	wasRunning := t.running
	t.Stop()
	if wasRunning {
		t.remaining[t.active] += t.increment
	}
	t.active = t.active.Other()
	if wasRunning {
		t.Start()
	}
}

// SetActive hands the clock to color c without crediting any increment.
func (t *Timer) SetActive(c board.Color) {
	if c == t.active {
		return
	}
	wasRunning := t.running
	t.Stop()
	t.active = c
	if wasRunning {
		t.Start()
	}
}

// TriggerTimeout stops the clock without switching players.
func (t *Timer) TriggerTimeout() {
	t.Stop()
}

// Time returns the time left for color c, including time elapsed on the
// running clock. It never goes below zero.
func (t *Timer) Time(c board.Color) time.Duration {
	if t.running && c == t.active {
		return t.inFlight()
	}
	return t.remaining[c]
}

// Expired returns true once color c has no time left.
func (t *Timer) Expired(c board.Color) bool {
	return t.Time(c) <= 0
}

// Active returns the color whose clock is (or would be) running.
func (t *Timer) Active() board.Color {
	return t.active
}

// Running reports whether a clock is ticking.
func (t *Timer) Running() bool {
	return t.running
}

// Started reports whether the timer was ever started.
func (t *Timer) Started() bool {
	return t.started
}

// inFlight returns the active clock minus the time since it was resumed,
// floored at zero.
func (t *Timer) inFlight() time.Duration {
	left := t.remaining[t.active] - t.now().Sub(t.since)
	if left < 0 {
		return 0
	}
	return left
}
