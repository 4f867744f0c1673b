package debounce

import (
	"sync"
	"time"
)

// Clock abstracts timer creation so debounce behaviour is testable deterministically.
type Clock interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is the cancellable handle returned by a Clock.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// RealClock returns a Clock backed by the runtime timers.
func RealClock() Clock {
	return realClock{}
}

// Debouncer coalesces bursts of Trigger calls into a single callback invocation.
// Each Trigger cancels any pending timer, so only the last call within the window
// fires.
type Debouncer struct {
	window time.Duration
	clock  Clock
	fn     func()

	mu      sync.Mutex
	pending Timer
}

// New builds a Debouncer firing fn after the window elapses without further triggers.
func New(window time.Duration, fn func(), clock Clock) *Debouncer {
	if clock == nil {
		clock = RealClock()
	}
	if window <= 0 {
		window = 500 * time.Millisecond
	}
	return &Debouncer{window: window, clock: clock, fn: fn}
}

// Trigger schedules the callback, superseding any pending schedule.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
	}
	d.pending = d.clock.AfterFunc(d.window, func() {
		d.mu.Lock()
		d.pending = nil
		d.mu.Unlock()
		d.fn()
	})
}

// Cancel drops any pending invocation.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}
