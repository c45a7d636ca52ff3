package scheduler

import (
	"testing"

	"cloud.google.com/go/civil"

	"github.com/example/crumb-calendar/internal/calendar"
)

func clock(h, m int) calendar.Clock { return calendar.MustClock(h, m) }

func timed(id string, date civil.Date, start, end calendar.Clock, rec calendar.Recurrence) calendar.Event {
	return calendar.Event{
		ID:         id,
		Title:      id,
		Date:       date,
		Start:      calendar.ClockPtr(start),
		End:        calendar.ClockPtr(end),
		Recurrence: rec,
	}
}

func TestDetector_HasConflict(t *testing.T) {
	t.Parallel()

	june2 := civil.Date{Year: 2025, Month: 6, Day: 2}
	june9 := civil.Date{Year: 2025, Month: 6, Day: 9}
	standup := timed("standup", june2, clock(9, 0), clock(10, 0), calendar.RecurrenceWeekly)
	detector := NewDetector(nil)

	t.Run("overlap with a weekly occurrence", func(t *testing.T) {
		t.Parallel()
		if !detector.HasConflict(june9, clock(9, 30), clock(10, 30), []calendar.Event{standup}, "") {
			t.Fatalf("expected 09:30-10:30 on 2025-06-09 to conflict with the weekly standup")
		}
	})

	t.Run("touching intervals do not conflict", func(t *testing.T) {
		t.Parallel()
		events := []calendar.Event{standup}
		if detector.HasConflict(june9, clock(10, 0), clock(11, 0), events, "") {
			t.Fatalf("10:00-11:00 only touches 09:00-10:00")
		}
		if detector.HasConflict(june9, clock(8, 0), clock(9, 0), events, "") {
			t.Fatalf("08:00-09:00 only touches 09:00-10:00")
		}
	})

	t.Run("day without occurrence", func(t *testing.T) {
		t.Parallel()
		june10 := civil.Date{Year: 2025, Month: 6, Day: 10}
		if detector.HasConflict(june10, clock(9, 30), clock(10, 30), []calendar.Event{standup}, "") {
			t.Fatalf("weekly standup does not occur on a Tuesday")
		}
	})

	t.Run("excluded id is ignored", func(t *testing.T) {
		t.Parallel()
		if detector.HasConflict(june9, clock(9, 30), clock(10, 30), []calendar.Event{standup}, "standup") {
			t.Fatalf("expected the excluded event to be skipped")
		}
	})

	t.Run("events without times are ignored", func(t *testing.T) {
		t.Parallel()
		allDay := calendar.Event{ID: "holiday", Date: june9}
		startOnly := calendar.Event{ID: "call", Date: june9, Start: calendar.ClockPtr(clock(9, 45))}
		if detector.HasConflict(june9, clock(9, 0), clock(12, 0), []calendar.Event{allDay, startOnly}, "") {
			t.Fatalf("all-day and start-only events must not conflict")
		}
	})

	t.Run("empty candidate never conflicts", func(t *testing.T) {
		t.Parallel()
		if detector.HasConflict(june9, clock(9, 30), clock(9, 30), []calendar.Event{standup}, "") {
			t.Fatalf("zero-length candidate must not conflict")
		}
	})
}

func TestOverlapsIsSymmetric(t *testing.T) {
	t.Parallel()

	points := []calendar.Clock{clock(8, 0), clock(9, 0), clock(9, 30), clock(10, 0), clock(11, 0)}
	for _, s1 := range points {
		for _, e1 := range points {
			if !s1.Before(e1) {
				continue
			}
			for _, s2 := range points {
				for _, e2 := range points {
					if !s2.Before(e2) {
						continue
					}
					if Overlaps(s1, e1, s2, e2) != Overlaps(s2, e2, s1, e1) {
						t.Fatalf("asymmetric overlap for [%s,%s) and [%s,%s)", s1, e1, s2, e2)
					}
				}
			}
		}
	}
}

func TestHasConflictSymmetricAcrossEvents(t *testing.T) {
	t.Parallel()

	day := civil.Date{Year: 2025, Month: 6, Day: 4}
	a := timed("a", day, clock(9, 0), clock(10, 0), calendar.RecurrenceNone)
	b := timed("b", day, clock(9, 59), clock(11, 0), calendar.RecurrenceDaily)

	ab := HasConflict(day, *a.Start, *a.End, []calendar.Event{b}, a.ID)
	ba := HasConflict(day, *b.Start, *b.End, []calendar.Event{a}, b.ID)
	if !ab || !ba {
		t.Fatalf("expected mutual conflict, got a->b=%v b->a=%v", ab, ba)
	}
}

func TestDetector_DetectConflicts(t *testing.T) {
	t.Parallel()

	day := civil.Date{Year: 2025, Month: 6, Day: 4}
	events := []calendar.Event{
		timed("first", day, clock(9, 0), clock(10, 0), calendar.RecurrenceNone),
		timed("second", day, clock(12, 0), clock(13, 0), calendar.RecurrenceNone),
		timed("third", day.AddDays(-7), clock(9, 30), clock(12, 30), calendar.RecurrenceWeekly),
	}

	got := NewDetector(nil).DetectConflicts(day, clock(9, 45), clock(12, 15), events, "")
	if len(got) != 3 {
		t.Fatalf("expected 3 conflicts, got %d: %+v", len(got), got)
	}
	if got[0].WithEventID != "first" || got[2].WithEventID != "third" {
		t.Fatalf("unexpected conflict order: %+v", got)
	}
	if got[2].Date != day || got[2].Start.String() != "09:30" {
		t.Fatalf("unexpected conflict details: %+v", got[2])
	}
}
