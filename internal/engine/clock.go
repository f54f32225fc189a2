package engine

import (
	"sync"
	"time"
)

// virtualClock is the scheduler's notion of now. It only moves forward.
type virtualClock struct {
	mu  sync.RWMutex
	now time.Time
}

func newVirtualClock(start time.Time) *virtualClock {
	return &virtualClock{now: start}
}

func (c *virtualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// MoveTo sets the clock to t unless t is in the past
func (c *virtualClock) MoveTo(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.now) {
		c.now = t
	}
}

func (c *virtualClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}
