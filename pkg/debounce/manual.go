package debounce

import (
	"sort"
	"sync"
	"time"
)

// ManualClock is an AfterFunc source whose time only moves on Advance.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Duration
	pending []*manualTimer
}

type manualTimer struct {
	clock   *ManualClock
	at      time.Duration
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	was := !t.stopped
	t.stopped = true
	return was
}

func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// AfterFunc has the AfterFunc signature.
func (c *ManualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &manualTimer{clock: c, at: c.now + d, f: f}
	c.pending = append(c.pending, t)
	return t
}

// Elapsed is the total time advanced so far.
func (c *ManualClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves time forward and runs, in order and on the caller's
// goroutine, every live timer that came due.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d

	var due, rest []*manualTimer
	for _, t := range c.pending {
		switch {
		case t.stopped:
		case t.at <= c.now:
			t.stopped = true
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	c.pending = rest
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}
