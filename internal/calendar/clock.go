package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ErrInvalidClock is returned when a wall-clock value cannot be parsed.
var ErrInvalidClock = errors.New("calendar: invalid clock value")

const minutesPerDay = 24 * 60

// Clock is a local wall-clock time of day with minute precision.
type Clock struct {
	minutes int
}

// NewClock builds a Clock from an hour (0-23) and minute (0-59).
func NewClock(hour, minute int) (Clock, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidClock, hour, minute)
	}
	return Clock{minutes: hour*60 + minute}, nil
}

// MustClock is NewClock for literals known to be valid.
func MustClock(hour, minute int) Clock {
	c, err := NewClock(hour, minute)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseClock parses "HH:MM" (24h). A single-digit hour is accepted.
func ParseClock(value string) (Clock, error) {
	value = strings.TrimSpace(value)
	hh, mm, ok := strings.Cut(value, ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	return NewClock(hour, minute)
}

// ClockOf returns the wall-clock time of t in its own location.
func ClockOf(t time.Time) Clock {
	return Clock{minutes: t.Hour()*60 + t.Minute()}
}

// ClockFromMinutes builds a Clock from minutes since midnight.
func ClockFromMinutes(minutes int) (Clock, error) {
	if minutes < 0 || minutes >= minutesPerDay {
		return Clock{}, fmt.Errorf("%w: %d minutes", ErrInvalidClock, minutes)
	}
	return Clock{minutes: minutes}, nil
}

// Hour returns the hour of day (0-23).
func (c Clock) Hour() int { return c.minutes / 60 }

// Minute returns the minute within the hour.
func (c Clock) Minute() int { return c.minutes % 60 }

// Minutes returns the minutes elapsed since midnight.
func (c Clock) Minutes() int { return c.minutes }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute()) }

// Before reports whether c is earlier in the day than other.
func (c Clock) Before(other Clock) bool { return c.minutes < other.minutes }

// After reports whether c is later in the day than other.
func (c Clock) After(other Clock) bool { return c.minutes > other.minutes }

// Compare returns -1, 0 or +1.
func (c Clock) Compare(other Clock) int {
	switch {
	case c.minutes < other.minutes:
		return -1
	case c.minutes > other.minutes:
		return 1
	default:
		return 0
	}
}

// Add shifts the clock by d. The second result is false when the result
// would leave the day.
func (c Clock) Add(d time.Duration) (Clock, bool) {
	m := c.minutes + int(d/time.Minute)
	if m < 0 || m >= minutesPerDay {
		return Clock{}, false
	}
	return Clock{minutes: m}, true
}

// Civil converts the clock to a civil.Time.
func (c Clock) Civil() civil.Time {
	return civil.Time{Hour: c.Hour(), Minute: c.Minute()}
}

// On combines the clock with a date in loc.
func (c Clock) On(d civil.Date, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, c.Hour(), c.Minute(), 0, 0, loc)
}

// MarshalText implements encoding.TextMarshaler.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Clock) UnmarshalText(data []byte) error {
	parsed, err := ParseClock(string(data))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ClockPtr returns a pointer to a copy of c.
func ClockPtr(c Clock) *Clock {
	return &c
}
