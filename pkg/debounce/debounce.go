// Package debounce collapses a rapidly changing value into a stable one.
//
// A Debouncer owns a single timer slot. Every Observe call re-arms the slot
// and invalidates whatever emission the previous call scheduled, so only the
// most recent value is delivered once the quiet interval has elapsed without
// further input.
package debounce

import (
	"sync"
	"time"
)

// DefaultQuietInterval is the idle time after which an observed value is
// considered stable.
const DefaultQuietInterval = 400 * time.Millisecond

// Debouncer delivers the latest observed value to its emit function once no
// new value has been observed for the quiet interval.
type Debouncer[T any] struct {
	// emitMu serializes emit calls so they run in observation order.
	emitMu sync.Mutex

	mu       sync.Mutex
	interval time.Duration
	emit     func(T)
	timer    *time.Timer
	gen      uint64
	pending  bool
	latest   T
	stopped  bool
}

// New creates a Debouncer. A non-positive interval falls back to
// DefaultQuietInterval.
func New[T any](interval time.Duration, emit func(T)) *Debouncer[T] {
	if interval <= 0 {
		interval = DefaultQuietInterval
	}
	return &Debouncer[T]{
		interval: interval,
		emit:     emit,
	}
}

// Interval returns the configured quiet interval.
func (d *Debouncer[T]) Interval() time.Duration {
	return d.interval
}

// Observe records v as the latest value and re-arms the timer. Any emission
// scheduled by an earlier call is cancelled.
func (d *Debouncer[T]) Observe(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.gen++
	d.latest = v
	d.pending = true
	if d.timer != nil {
		d.timer.Stop()
	}

	gen := d.gen
	d.timer = time.AfterFunc(d.interval, func() { d.fire(gen) })
}

// fire delivers the latest value if gen still identifies the armed slot.
// A timer that was superseded after it had already started running sees a
// newer generation and does nothing.
func (d *Debouncer[T]) fire(gen uint64) {
	d.emitMu.Lock()
	defer d.emitMu.Unlock()

	d.mu.Lock()
	if d.stopped || gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	v := d.latest
	d.mu.Unlock()

	// Pending stays true until emit returns, so observers never see a gap
	// between "input pending" and whatever emit does with it.
	d.emit(v)

	d.mu.Lock()
	if gen == d.gen {
		d.pending = false
		d.timer = nil
	}
	d.mu.Unlock()
}

// Pending reports whether a value is waiting for the quiet interval to pass.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Cancel drops the pending emission, if any.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.invalidate()
}

// Flush emits the pending value immediately instead of waiting for the quiet
// interval. It reports whether a value was emitted. emit must not call Flush.
func (d *Debouncer[T]) Flush() bool {
	d.emitMu.Lock()
	defer d.emitMu.Unlock()

	d.mu.Lock()
	if d.stopped || !d.pending {
		d.mu.Unlock()
		return false
	}
	v := d.latest
	d.invalidate()
	d.mu.Unlock()

	d.emit(v)
	return true
}

// Stop cancels any pending emission and makes further Observe calls no-ops.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.invalidate()
	d.stopped = true
}

func (d *Debouncer[T]) invalidate() {
	d.gen++
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
