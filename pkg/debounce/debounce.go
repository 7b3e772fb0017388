// Package debounce delays an action until its trigger has been quiet for a
// fixed window.
package debounce

import (
	"sync"
	"time"
)

// Timer is the subset of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once wrapped.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	after   AfterFunc
	timer   Timer
	stopped bool
}

// New returns a debouncer with the given quiet window.
func New(window time.Duration) *Debouncer {
	return NewWithClock(window, realAfterFunc)
}

// NewWithClock lets tests drive the timer.
func NewWithClock(window time.Duration, after AfterFunc) *Debouncer {
	return &Debouncer{window: window, after: after}
}

// Trigger (re)starts the window. Only the f of the last Trigger inside a
// window runs.
func (d *Debouncer) Trigger(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	var t Timer
	t = d.after(d.window, func() {
		d.mu.Lock()
		if d.timer != t {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		f()
	})
	d.timer = t
}

// Cancel drops a pending action. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	return true
}

// Pending reports whether an action is waiting for its window to elapse.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending action and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
