// Package debounce coalesces bursts of events into one delayed call.
package debounce

import (
	"sync"
	"time"
)

// DefaultQuiet is the quiet period used for keyword input.
const DefaultQuiet = 300 * time.Millisecond

// Debouncer calls fn with the latest triggered value once no new value has
// arrived for the quiet period. It is safe for concurrent use.
type Debouncer[T any] struct {
	quiet time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool
	latest  T
	stopped bool
}

// New creates a debouncer. A non-positive quiet period uses DefaultQuiet.
func New[T any](quiet time.Duration, fn func(T)) *Debouncer[T] {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &Debouncer[T]{quiet: quiet, fn: fn}
}

// Trigger records v and restarts the quiet period.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.latest = v
	d.pending = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.timer = time.AfterFunc(d.quiet, func() { d.fire(gen) })
}

// fire runs fn if gen is still the latest trigger. A timer that fired while
// a newer Trigger was replacing it is ignored here.
func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || !d.pending || gen != d.gen {
		d.mu.Unlock()
		return
	}
	v := d.latest
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.fn(v)
}

// Flush runs fn immediately with the pending value, if any. It returns
// whether a value was pending.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if d.stopped || !d.pending {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	v := d.latest
	d.pending = false
	d.mu.Unlock()

	d.fn(v)
	return true
}

// Pending reports whether a call is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Cancel drops the pending call, if any, without stopping the debouncer.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Stop drops any pending call. Later triggers are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
