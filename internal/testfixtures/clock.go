package testfixtures

import (
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"github.com/example/crumb-calendar/internal/calendar"
)

// Clock is a controllable wall clock for tests that exercise "jump to now"
// and the create-for-now draft.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock set to start, or to ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now for injection into services.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Today returns the local date of the current instant.
func (c *Clock) Today() civil.Date {
	return civil.DateOf(c.Now())
}

// WallClock returns the time of day of the current instant.
func (c *Clock) WallClock() calendar.Clock {
	return calendar.ClockOf(c.Now())
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	c.current = c.current.Add(d)
	updated := c.current
	c.mu.Unlock()
	return updated
}
