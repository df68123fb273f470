package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant a Clock returns.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Clock hands out strictly increasing timestamps one second apart, starting
// at Epoch, so fixtures with time fields are reproducible.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu   sync.Mutex
	tick int64
}

// NewClock creates a clock whose first Next returns Epoch.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next timestamp.
func (c *Clock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Epoch.Add(time.Duration(c.tick) * time.Second)
	c.tick++
	return t
}

// Reset rewinds the clock to Epoch.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = 0
}
