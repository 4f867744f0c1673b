package debounce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock hands out timers that only fire when the test advances them.
type fakeClock struct {
	timers []*fakeTimer
}

type fakeTimer struct {
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	t := &fakeTimer{fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) fire() {
	for _, t := range c.timers {
		if !t.stopped {
			t.stopped = true
			t.fn()
		}
	}
}

func TestDebouncerFiresOnce(t *testing.T) {
	clock := &fakeClock{}
	calls := 0
	d := New(500*time.Millisecond, func() { calls++ }, clock)

	d.Trigger()
	clock.fire()

	assert.Equal(t, 1, calls)
}

func TestDebouncerSupersedesPendingTrigger(t *testing.T) {
	clock := &fakeClock{}
	calls := 0
	d := New(500*time.Millisecond, func() { calls++ }, clock)

	d.Trigger()
	d.Trigger()
	d.Trigger()
	clock.fire()

	assert.Equal(t, 1, calls)
	assert.True(t, clock.timers[0].stopped)
	assert.True(t, clock.timers[1].stopped)
}

func TestDebouncerCancel(t *testing.T) {
	clock := &fakeClock{}
	calls := 0
	d := New(500*time.Millisecond, func() { calls++ }, clock)

	d.Trigger()
	d.Cancel()
	clock.fire()

	assert.Equal(t, 0, calls)
}
