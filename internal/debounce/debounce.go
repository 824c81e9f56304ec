// Package debounce coalesces bursts of edits into a single deferred call.
package debounce

import (
	"sync"
	"time"

	"github.com/conneroisu/codeplay/internal/clock"
)

// DefaultDelay is the quiet period after the last edit before a render.
const DefaultDelay = 500 * time.Millisecond

// Debouncer delivers only the last value of a burst, once, Delay after the
// burst ends. Calls to fn never overlap for the same Debouncer as long as
// fn itself does not block past the next deadline.
type Debouncer[T any] struct {
	delay   time.Duration
	clock   clock.Clock
	fn      func(T)
	mutex   sync.Mutex
	timer   clock.Timer
	pending T
	armed   bool
	gen     uint64
}

// New creates a debouncer that calls fn. A zero delay uses DefaultDelay.
func New[T any](delay time.Duration, clk clock.Clock, fn func(T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Debouncer[T]{delay: delay, clock: clk, fn: fn}
}

// Trigger records v and restarts the quiet period.
func (d *Debouncer[T]) Trigger(v T) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = v
	d.armed = true
	d.gen++

	if d.timer != nil {
		d.timer.Stop()
	}

	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.fire(gen)
	})
}

// Flush runs a pending call immediately. It reports whether one was pending.
func (d *Debouncer[T]) Flush() bool {
	d.mutex.Lock()
	if !d.armed {
		d.mutex.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	v := d.take()
	d.mutex.Unlock()

	d.fn(v)
	return true
}

// Cancel drops a pending call. It reports whether one was pending.
func (d *Debouncer[T]) Cancel() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if !d.armed {
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.take()
	return true
}

// Pending reports whether a call is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.armed
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mutex.Lock()
	// A timer that lost the race with Stop must not deliver a stale value.
	if !d.armed || gen != d.gen {
		d.mutex.Unlock()
		return
	}
	v := d.take()
	d.mutex.Unlock()

	d.fn(v)
}

func (d *Debouncer[T]) take() T {
	v := d.pending
	var zero T
	d.pending = zero
	d.armed = false
	d.timer = nil
	d.gen++
	return v
}
