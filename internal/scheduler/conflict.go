package scheduler

import (
	"iter"
	"slices"

	"cloud.google.com/go/civil"

	"github.com/example/crumb-calendar/internal/calendar"
	"github.com/example/crumb-calendar/internal/recurrence"
)

// Conflict describes an existing event whose occurrence overlaps a candidate
// time range on a given day.
type Conflict struct {
	WithEventID string
	Title       string
	Date        civil.Date
	Start       calendar.Clock
	End         calendar.Clock
}

// Detector checks candidate time ranges against the occurrences of base events.
type Detector struct {
	engine *recurrence.Engine
}

// NewDetector returns a Detector expanding events with engine. A nil engine
// gets a default one.
func NewDetector(engine *recurrence.Engine) *Detector {
	if engine == nil {
		engine = recurrence.NewEngine()
	}
	return &Detector{engine: engine}
}

// HasConflict reports whether [start, end) on date overlaps any timed
// occurrence of events other than excludeID. Intervals that only touch do not
// overlap.
func (d *Detector) HasConflict(date civil.Date, start, end calendar.Clock, events []calendar.Event, excludeID string) bool {
	for range d.conflicts(date, start, end, events, excludeID) {
		return true
	}
	return false
}

// DetectConflicts lists every overlapping occurrence, in the order of events.
func (d *Detector) DetectConflicts(date civil.Date, start, end calendar.Clock, events []calendar.Event, excludeID string) []Conflict {
	return slices.Collect(d.conflicts(date, start, end, events, excludeID))
}

func (d *Detector) conflicts(date civil.Date, start, end calendar.Clock, events []calendar.Event, excludeID string) iter.Seq[Conflict] {
	return func(yield func(Conflict) bool) {
		if !start.Before(end) {
			return
		}
		for _, ev := range events {
			if excludeID != "" && ev.ID == excludeID {
				continue
			}
			evStart, evEnd, ok := ev.Interval()
			if !ok {
				continue
			}
			if !Overlaps(start, end, evStart, evEnd) {
				continue
			}
			if !d.engine.OccursOn(ev, date) {
				continue
			}
			if !yield(Conflict{
				WithEventID: ev.ID,
				Title:       ev.Title,
				Date:        date,
				Start:       evStart,
				End:         evEnd,
			}) {
				return
			}
		}
	}
}

// Overlaps reports whether the half-open intervals [s1, e1) and [s2, e2) share
// any instant.
func Overlaps(s1, e1, s2, e2 calendar.Clock) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// HasConflict is a convenience wrapper using a default Detector.
func HasConflict(date civil.Date, start, end calendar.Clock, events []calendar.Event, excludeID string) bool {
	return NewDetector(nil).HasConflict(date, start, end, events, excludeID)
}
