package store

import (
	"sync"
	"time"
)

// Clock yields file timestamps in epoch milliseconds.
type Clock interface {
	NowMillis() int64
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() int64

func (f ClockFunc) NowMillis() int64 { return f() }

// monotonicClock never goes backwards, even if the wall clock does.
type monotonicClock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewClock returns the service clock backed by time.Now.
func NewClock() Clock {
	return &monotonicClock{now: time.Now}
}

func (c *monotonicClock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UnixMilli()
	if t < c.last {
		t = c.last
	}
	c.last = t
	return t
}
