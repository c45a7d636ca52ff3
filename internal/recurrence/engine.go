package recurrence

import (
	"errors"
	"iter"
	"slices"
	"time"

	"cloud.google.com/go/civil"
	"github.com/teambition/rrule-go"

	"github.com/example/crumb-calendar/internal/calendar"
)

// ErrInvalidRecurrence indicates the event recurrence is not supported.
var ErrInvalidRecurrence = errors.New("recurrence: invalid recurrence")

// ErrInvalidAnchor indicates the event has no usable anchor date.
var ErrInvalidAnchor = errors.New("recurrence: anchor date is invalid")

// Engine expands base events into dated occurrences.
//
// Rules are evaluated with rrule-go on midnight UTC instants that stand for
// local wall-clock dates, so daylight saving transitions never move a date.
// Monthly rules use BYMONTHDAY semantics: a month without the anchor's day
// of month produces no occurrence.
type Engine struct{}

// NewEngine constructs an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Occurrences yields the occurrence dates of ev inside [rangeStart, rangeEnd)
// in ascending order. The sequence is lazy and may be iterated repeatedly.
func (e *Engine) Occurrences(ev calendar.Event, rangeStart, rangeEnd civil.Date) iter.Seq[civil.Date] {
	return func(yield func(civil.Date) bool) {
		anchor := ev.Date
		if !anchor.IsValid() || !rangeStart.Before(rangeEnd) {
			return
		}

		lower := rangeStart
		if lower.Before(anchor) {
			lower = anchor
		}
		if !lower.Before(rangeEnd) {
			return
		}

		recurrence := ev.Recurrence.OrNone()
		if recurrence == calendar.RecurrenceNone {
			if !anchor.Before(rangeStart) {
				yield(anchor)
			}
			return
		}

		opt, err := ruleOption(recurrence, anchor, lower)
		if err != nil {
			return
		}
		// UNTIL is inclusive; the range end is not.
		opt.Until = midnight(rangeEnd.AddDays(-1))

		rule, err := rrule.NewRRule(opt)
		if err != nil {
			return
		}

		next := rule.Iterator()
		for {
			t, ok := next()
			if !ok {
				return
			}
			d := civil.DateOf(t)
			if !d.Before(rangeEnd) {
				return
			}
			if d.Before(lower) {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}

// OccurrencesInRange collects Occurrences into a slice.
func (e *Engine) OccurrencesInRange(ev calendar.Event, rangeStart, rangeEnd civil.Date) []civil.Date {
	return slices.Collect(e.Occurrences(ev, rangeStart, rangeEnd))
}

// OccursOn reports whether ev has an occurrence on day.
func (e *Engine) OccursOn(ev calendar.Event, day civil.Date) bool {
	for range e.Occurrences(ev, day, day.AddDays(1)) {
		return true
	}
	return false
}

// Expand returns every occurrence of every event in [rangeStart, rangeEnd),
// ordered by date and then by the position of the base event in events.
func (e *Engine) Expand(events []calendar.Event, rangeStart, rangeEnd civil.Date) []calendar.Occurrence {
	out := make([]calendar.Occurrence, 0, len(events))
	for _, ev := range events {
		for d := range e.Occurrences(ev, rangeStart, rangeEnd) {
			out = append(out, calendar.Occurrence{Event: ev, Date: d})
		}
	}
	slices.SortStableFunc(out, func(a, b calendar.Occurrence) int {
		return a.Date.Compare(b.Date)
	})
	return out
}

// Rule returns the RFC 5545 RRULE value for ev, or "" for non-recurring events.
func (e *Engine) Rule(ev calendar.Event) (string, error) {
	if !ev.Date.IsValid() {
		return "", ErrInvalidAnchor
	}
	recurrence := ev.Recurrence.OrNone()
	if recurrence == calendar.RecurrenceNone {
		return "", nil
	}
	opt, err := ruleOption(recurrence, ev.Date, ev.Date)
	if err != nil {
		return "", err
	}
	return opt.RRuleString(), nil
}

// ruleOption builds the rrule options for recurrence. DTSTART is moved forward
// to the last period boundary at or before lower so the iterator does not
// walk the whole history of an old anchor.
func ruleOption(recurrence calendar.Recurrence, anchor, lower civil.Date) (rrule.ROption, error) {
	start := anchor
	opt := rrule.ROption{}

	switch recurrence {
	case calendar.RecurrenceDaily:
		opt.Freq = rrule.DAILY
		if lower.After(anchor) {
			start = lower
		}
	case calendar.RecurrenceWeekly:
		opt.Freq = rrule.WEEKLY
		start = anchor.AddDays(periodsBetween(anchor, lower, 7) * 7)
	case calendar.RecurrenceBiweekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2
		start = anchor.AddDays(periodsBetween(anchor, lower, 14) * 14)
	case calendar.RecurrenceMonthly:
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = []int{anchor.Day}
		if lower.Year != anchor.Year || lower.Month != anchor.Month {
			if lower.After(anchor) {
				start = civil.Date{Year: lower.Year, Month: lower.Month, Day: 1}
			}
		}
	default:
		return rrule.ROption{}, ErrInvalidRecurrence
	}

	opt.Dtstart = midnight(start)
	return opt, nil
}

func periodsBetween(anchor, lower civil.Date, days int) int {
	if !lower.After(anchor) {
		return 0
	}
	return lower.DaysSince(anchor) / days
}

func midnight(d civil.Date) time.Time {
	return d.In(time.UTC)
}
