package internal

import (
	"sync"
	"time"
)

// TestClock is a settable clock for deterministic tests.
type TestClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewTestClock(t time.Time) *TestClock { return &TestClock{t: t} }

func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Set moves the clock to t.
func (c *TestClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *TestClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
