// Package grid projects base events and imported itinerary visits onto a
// day, three-day or week view made of fixed time slots.
package grid

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ErrInvalidWindow is returned for a window size other than 1, 3 or 7 days.
var ErrInvalidWindow = errors.New("grid: window size must be 1, 3 or 7")

// Mode is the number of days shown at once.
type Mode int

const (
	ModeDay      Mode = 1
	ModeThreeDay Mode = 3
	ModeWeek     Mode = 7
)

// Valid reports whether m is a supported window size.
func (m Mode) Valid() bool {
	switch m {
	case ModeDay, ModeThreeDay, ModeWeek:
		return true
	default:
		return false
	}
}

// Days returns the window size in days.
func (m Mode) Days() int { return int(m) }

func (m Mode) String() string {
	switch m {
	case ModeDay:
		return "day"
	case ModeThreeDay:
		return "3day"
	case ModeWeek:
		return "week"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Next cycles Day -> 3-day -> Week -> Day.
func (m Mode) Next() Mode {
	switch m {
	case ModeDay:
		return ModeThreeDay
	case ModeThreeDay:
		return ModeWeek
	default:
		return ModeDay
	}
}

// ParseMode accepts "day", "3day" or "week" (and the numeric window sizes).
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "day", "1":
		return ModeDay, nil
	case "3day", "3-day", "three-day", "3":
		return ModeThreeDay, nil
	case "week", "7":
		return ModeWeek, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidWindow, value)
	}
}

// View is the navigation state of the grid: an anchor date and a mode.
// Navigation never alters event data.
type View struct {
	Anchor civil.Date
	Mode   Mode
}

// NewView returns a view anchored at anchor. An invalid mode falls back to
// the week view.
func NewView(anchor civil.Date, mode Mode) View {
	if !mode.Valid() {
		mode = ModeWeek
	}
	return View{Anchor: anchor, Mode: mode}
}

// WithMode switches the window size and keeps the anchor.
func (v View) WithMode(mode Mode) View {
	if !mode.Valid() {
		return v
	}
	v.Mode = mode
	return v
}

// Page moves the anchor by delta whole windows.
func (v View) Page(delta int) View {
	v.Anchor = v.Anchor.AddDays(delta * v.Mode.Days())
	return v
}

// Step moves the anchor by delta days.
func (v View) Step(delta int) View {
	v.Anchor = v.Anchor.AddDays(delta)
	return v
}

// Today moves the anchor to the local date of now.
func (v View) Today(now time.Time) View {
	v.Anchor = civil.DateOf(now)
	return v
}

// Range returns the half-open date range [from, to) covered by the view.
func (v View) Range() (civil.Date, civil.Date) {
	return v.Anchor, v.Anchor.AddDays(v.Mode.Days())
}

// Dates lists the visible dates in order.
func (v View) Dates() []civil.Date {
	out := make([]civil.Date, v.Mode.Days())
	for i := range out {
		out[i] = v.Anchor.AddDays(i)
	}
	return out
}
