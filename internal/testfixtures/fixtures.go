package testfixtures

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/example/crumb-calendar/internal/calendar"
)

var referenceTime = time.Date(2025, time.June, 2, 8, 40, 0, 0, time.Local)

// ReferenceTime returns the instant fixtures treat as "now": Monday
// 2025-06-02 08:40 local time.
func ReferenceTime() time.Time {
	return referenceTime
}

// Date is shorthand for a civil date literal.
func Date(year int, month time.Month, day int) civil.Date {
	return civil.Date{Year: year, Month: month, Day: day}
}

// At is shorthand for a clock pointer; it panics on an invalid time.
func At(hour, minute int) *calendar.Clock {
	c := calendar.MustClock(hour, minute)
	return &c
}

// EventOption customises an event fixture.
type EventOption func(*calendar.Event)

// WithEventID sets the event id.
func WithEventID(id string) EventOption {
	return func(ev *calendar.Event) { ev.ID = id }
}

// WithTitle sets the title.
func WithTitle(title string) EventOption {
	return func(ev *calendar.Event) { ev.Title = title }
}

// WithDate sets the anchor date.
func WithDate(d civil.Date) EventOption {
	return func(ev *calendar.Event) { ev.Date = d }
}

// WithTimes sets start and end; either may be nil.
func WithTimes(start, end *calendar.Clock) EventOption {
	return func(ev *calendar.Event) {
		ev.Start = start
		ev.End = end
	}
}

// WithRecurrence sets the repeat rule.
func WithRecurrence(r calendar.Recurrence) EventOption {
	return func(ev *calendar.Event) { ev.Recurrence = r }
}

// WithColor sets the display color.
func WithColor(c calendar.Color) EventOption {
	return func(ev *calendar.Event) { ev.Color = c }
}

// WithLocation sets the location text.
func WithLocation(loc string) EventOption {
	return func(ev *calendar.Event) { ev.Location = loc }
}

// EventFixture returns a one-off 09:00-10:00 event on the reference date.
func EventFixture(opts ...EventOption) calendar.Event {
	ev := calendar.Event{
		ID:         "evt-fixture",
		Title:      "Customer call",
		Date:       civil.DateOf(ReferenceTime()),
		Start:      At(9, 0),
		End:        At(10, 0),
		Recurrence: calendar.RecurrenceNone,
		Color:      calendar.DefaultColor,
	}
	for _, opt := range opts {
		opt(&ev)
	}
	return ev
}

// WeeklyStandup is the Monday 09:00-10:00 weekly series anchored on
// 2024-06-03 used across the recurrence and conflict tests.
func WeeklyStandup(id string) calendar.Event {
	return EventFixture(
		WithEventID(id),
		WithTitle("Standup"),
		WithDate(Date(2024, time.June, 3)),
		WithRecurrence(calendar.RecurrenceWeekly),
	)
}

// VisitFixture returns an open contact visit at 14:00 on the reference date.
func VisitFixture(name string) calendar.Visit {
	return calendar.Visit{
		Name:          name,
		Title:         "Quarterly review",
		Date:          civil.DateOf(ReferenceTime()),
		Time:          At(14, 0),
		Type:          calendar.VisitContact,
		AccountNumber: "ACC-1001",
	}
}
