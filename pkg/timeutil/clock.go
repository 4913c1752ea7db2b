package timeutil

import (
	"sort"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLOCK
// ══════════════════════════════════════════════════════════════════════════════

// Clock is the source of time and delayed tasks for the core.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc runs fn once after d has elapsed.
	// The returned Handle cancels the task if it has not fired yet.
	AfterFunc(d time.Duration, fn func()) Handle
}

// Handle cancels a scheduled task.
type Handle interface {
	// Cancel prevents the task from running. It reports whether the task
	// was still pending.
	Cancel() bool
}

// ══════════════════════════════════════════════════════════════════════════════
// REAL CLOCK
// ══════════════════════════════════════════════════════════════════════════════

// RealClock is a Clock backed by the runtime timers.
type RealClock struct{}

// NewRealClock returns the wall clock.
func NewRealClock() RealClock {
	return RealClock{}
}

// Now implements Clock.
func (RealClock) Now() time.Time {
	return time.Now()
}

// AfterFunc implements Clock.
func (RealClock) AfterFunc(d time.Duration, fn func()) Handle {
	return realHandle{timer: time.AfterFunc(d, fn)}
}

type realHandle struct {
	timer *time.Timer
}

func (h realHandle) Cancel() bool {
	return h.timer.Stop()
}

// ══════════════════════════════════════════════════════════════════════════════
// FAKE CLOCK
// ══════════════════════════════════════════════════════════════════════════════

// FakeClock is a manually advanced Clock. Pending tasks run synchronously
// inside Advance, in due-time order (ties in scheduling order).
type FakeClock struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks []*fakeTask
}

type fakeTask struct {
	due       time.Time
	seq       uint64
	fn        func()
	cancelled bool
	fired     bool
	clock     *FakeClock
}

// NewFakeClock creates a FakeClock starting at the given time.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now implements Clock.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc implements Clock.
func (c *FakeClock) AfterFunc(d time.Duration, fn func()) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &fakeTask{due: c.now.Add(d), seq: c.seq, fn: fn, clock: c}
	c.tasks = append(c.tasks, t)
	return t
}

// Set moves the clock to t without running pending tasks.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Pending returns the number of tasks that have neither fired nor been cancelled.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.tasks {
		if !t.cancelled && !t.fired {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d and runs every task that became due.
// Tasks scheduled by a running task are honoured if they fall inside the window.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		if next.due.After(c.now) {
			c.now = next.due
		}
		c.mu.Unlock()

		next.fn()
	}
}

func (c *FakeClock) nextDueLocked(target time.Time) *fakeTask {
	live := c.tasks[:0]
	for _, t := range c.tasks {
		if !t.cancelled && !t.fired {
			live = append(live, t)
		}
	}
	c.tasks = live

	sort.SliceStable(c.tasks, func(i, j int) bool {
		if c.tasks[i].due.Equal(c.tasks[j].due) {
			return c.tasks[i].seq < c.tasks[j].seq
		}
		return c.tasks[i].due.Before(c.tasks[j].due)
	})

	if len(c.tasks) == 0 || c.tasks[0].due.After(target) {
		return nil
	}
	return c.tasks[0]
}

func (t *fakeTask) Cancel() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.cancelled || t.fired {
		return false
	}
	t.cancelled = true
	return true
}
