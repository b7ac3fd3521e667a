package testutil

import (
	"sync"
	"time"
)

// ManualClock is a controllable wall clock for deterministic tests.
//
// Time moves only when told to: Advance moves it explicitly, and a non-zero
// step moves it forward after every Now call. A step turns "poll the clock
// at every expansion" into "the Nth expansion sees the deadline".
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu    sync.Mutex
	now   time.Time
	step  time.Duration
	calls int64
}

// Epoch is the default start time of a ManualClock.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// NewManualClock creates a clock at Epoch that advances by step after each
// Now call. A zero step freezes time.
func NewManualClock(step time.Duration) *ManualClock {
	return &ManualClock{now: Epoch, step: step}
}

// Now returns the current time, then advances it by the step.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	c.calls++
	return t
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Calls returns how many times Now has been called.
func (c *ManualClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset returns the clock to Epoch and clears the call count.
func (c *ManualClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = Epoch
	c.calls = 0
}
