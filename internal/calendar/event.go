// Package calendar defines the event model shared by the recurrence expander,
// the overlap detector, the grid projector and the editor service.
package calendar

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"cloud.google.com/go/civil"
)

// ErrInvalidRecurrence is returned when a recurrence name is not supported.
var ErrInvalidRecurrence = errors.New("calendar: invalid recurrence")

// Recurrence names how a base event repeats.
type Recurrence string

const (
	RecurrenceNone     Recurrence = "none"
	RecurrenceDaily    Recurrence = "daily"
	RecurrenceWeekly   Recurrence = "weekly"
	RecurrenceBiweekly Recurrence = "biweekly"
	RecurrenceMonthly  Recurrence = "monthly"
)

// Recurrences lists the supported recurrence values in display order.
var Recurrences = []Recurrence{
	RecurrenceNone,
	RecurrenceDaily,
	RecurrenceWeekly,
	RecurrenceBiweekly,
	RecurrenceMonthly,
}

// ParseRecurrence normalises a recurrence name. The empty string maps to none.
func ParseRecurrence(value string) (Recurrence, error) {
	r := Recurrence(strings.ToLower(strings.TrimSpace(value)))
	if r == "" {
		return RecurrenceNone, nil
	}
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRecurrence, value)
	}
	return r, nil
}

// Valid reports whether r is one of the supported values.
func (r Recurrence) Valid() bool {
	return slices.Contains(Recurrences, r)
}

// OrNone maps the zero value to RecurrenceNone.
func (r Recurrence) OrNone() Recurrence {
	if r == "" {
		return RecurrenceNone
	}
	return r
}

// Color is a CSS hex colour used when rendering an event.
type Color string

// DefaultColor is assigned to events created without a colour.
const DefaultColor Color = "#3498db"

// Palette is the fixed set of colours a user can pick from.
var Palette = []Color{
	"#3498db",
	"#e74c3c",
	"#2ecc71",
	"#f39c12",
	"#9b59b6",
	"#1abc9c",
	"#34495e",
	"#e67e22",
	"#7f8c8d",
	"#fd79a8",
}

// Valid reports whether c belongs to the palette.
func (c Color) Valid() bool {
	return slices.Contains(Palette, Color(strings.ToLower(string(c))))
}

// OrDefault maps the zero value to DefaultColor.
func (c Color) OrDefault() Color {
	if c == "" {
		return DefaultColor
	}
	return Color(strings.ToLower(string(c)))
}

// Event is a base calendar record. Recurring events are stored once; their
// occurrences are derived on demand.
type Event struct {
	ID         string
	Title      string
	Date       civil.Date
	Start      *Clock
	End        *Clock
	Recurrence Recurrence
	Location   string
	Notes      string
	Color      Color
}

// Timed reports whether the event has both a start and an end time.
// Only timed events take part in conflict detection.
func (e Event) Timed() bool {
	return e.Start != nil && e.End != nil
}

// Interval returns the start and end clocks of a timed event.
func (e Event) Interval() (Clock, Clock, bool) {
	if !e.Timed() {
		return Clock{}, Clock{}, false
	}
	return *e.Start, *e.End, true
}

// Clone returns a copy that shares no pointers with e.
func (e Event) Clone() Event {
	out := e
	if e.Start != nil {
		out.Start = ClockPtr(*e.Start)
	}
	if e.End != nil {
		out.End = ClockPtr(*e.End)
	}
	return out
}

// CompareStart orders events by start time; events without one sort last.
func CompareStart(a, b *Clock) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

// Occurrence is a single dated instance of a base event.
type Occurrence struct {
	Event Event
	Date  civil.Date
}

// VisitType distinguishes itinerary stops for known accounts and prospects.
type VisitType string

const (
	VisitContact  VisitType = "contact"
	VisitProspect VisitType = "prospect"
)

// Visit is an itinerary stop imported from the delivery planner. Visits are
// displayed next to events but are never edited through the calendar.
type Visit struct {
	Name          string
	Title         string
	Date          civil.Date
	Time          *Clock
	Type          VisitType
	AccountNumber string
	Done          bool
}

// Label returns the text shown for the visit.
func (v Visit) Label() string {
	if strings.TrimSpace(v.Title) != "" {
		return v.Title
	}
	return v.Name
}
