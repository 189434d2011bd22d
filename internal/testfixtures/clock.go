package testfixtures

import (
	"sync"
	"time"

	"github.com/example/academy-scheduler/internal/calendar"
)

// Clock is a settable time source. Services receive NowFunc so a test can move
// "today" between calls.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock starts the clock at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the clock's instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc returns Now for injection. A nil clock falls back to the wall clock.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Today returns the calendar date of the clock's instant.
func (c *Clock) Today() calendar.Date {
	return calendar.Today(c.Now)
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// AdvanceDays moves the clock forward by whole days and returns the new date.
func (c *Clock) AdvanceDays(days int) calendar.Date {
	c.mu.Lock()
	c.current = c.current.AddDate(0, 0, days)
	c.mu.Unlock()
	return c.Today()
}
