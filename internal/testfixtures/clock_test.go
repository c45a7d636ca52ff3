package testfixtures

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
	if clock.Today() != (civil.Date{Year: 2025, Month: time.June, Day: 2}) {
		t.Fatalf("unexpected reference date %s", clock.Today())
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2025, time.June, 9, 9, 26, 0, 0, time.Local)
	clock := NewClock(start)

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}
	if got := clock.WallClock().String(); got != "10:56" {
		t.Fatalf("expected 10:56, got %s", got)
	}

	clock.Set(start.Add(15 * time.Hour))
	if got := clock.Today(); got != (civil.Date{Year: 2025, Month: time.June, Day: 10}) {
		t.Fatalf("expected the next day after crossing midnight, got %s", got)
	}
}

func TestClockNowFunc(t *testing.T) {
	var nilClock *Clock
	if nilClock.NowFunc() == nil {
		t.Fatalf("expected a fallback function for a nil clock")
	}
	clock := NewClock(time.Time{})
	if !clock.NowFunc()().Equal(clock.Now()) {
		t.Fatalf("NowFunc must read the same clock")
	}
}
