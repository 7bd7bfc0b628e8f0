package domain

import (
	"sync"
	"time"
)

// Clock is the single trusted time source shared by all components. Deadline
// comparisons (end time, dispute window) must go through it rather than
// reading the wall clock directly.
type Clock interface {
	Now() time.Time
}

// SystemClock is a Clock backed by time.Now with a monotonic non-decreasing
// guard: if the wall clock steps backwards, Now keeps returning the latest
// observed instant until real time catches up.
type SystemClock struct {
	mu   sync.Mutex
	last time.Time
}

// NewSystemClock creates a SystemClock.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current time, never earlier than a previously returned one.
func (c *SystemClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	if now.Before(c.last) {
		return c.last
	}
	c.last = now
	return now
}
