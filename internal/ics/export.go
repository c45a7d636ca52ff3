// Package ics renders calendar events as an iCalendar (RFC 5545) document.
package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/crumb-calendar/internal/calendar"
	"github.com/example/crumb-calendar/internal/recurrence"
)

// ProductID identifies the exporter in PRODID.
const ProductID = "-//crumbcal//calendar//EN"

const localDateTime = "20060102T150405"

// Options tune the exported calendar.
type Options struct {
	// Name is written as X-WR-CALNAME when set.
	Name string
	// Now stamps DTSTAMP; time.Now when nil.
	Now func() time.Time
	// UIDDomain is appended to event ids to form UIDs.
	UIDDomain string
}

// Exporter converts base events into VEVENTs. Recurring events are written
// once with an RRULE rather than expanded.
type Exporter struct {
	engine *recurrence.Engine
	opts   Options
}

// NewExporter returns an Exporter. A nil engine gets a default one.
func NewExporter(engine *recurrence.Engine, opts Options) *Exporter {
	if engine == nil {
		engine = recurrence.NewEngine()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.UIDDomain == "" {
		opts.UIDDomain = "crumbcal"
	}
	return &Exporter{engine: engine, opts: opts}
}

// Calendar builds the iCalendar object for events.
func (x *Exporter) Calendar(events []calendar.Event) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	if x.opts.Name != "" {
		cal.SetXWRCalName(x.opts.Name)
	}

	stamp := x.opts.Now().UTC()
	for _, ev := range events {
		if err := x.addEvent(cal, ev, stamp); err != nil {
			return nil, err
		}
	}
	return cal, nil
}

// Write serializes events to w.
func (x *Exporter) Write(w io.Writer, events []calendar.Event) error {
	cal, err := x.Calendar(events)
	if err != nil {
		return err
	}
	return cal.SerializeTo(w)
}

func (x *Exporter) addEvent(cal *ical.Calendar, ev calendar.Event, stamp time.Time) error {
	rule, err := x.engine.Rule(ev)
	if err != nil {
		return fmt.Errorf("ics: event %s: %w", ev.ID, err)
	}

	vevent := cal.AddEvent(ev.ID + "@" + x.opts.UIDDomain)
	vevent.SetDtStampTime(stamp)
	vevent.SetSummary(ev.Title)

	// Wall-clock times are written without a zone (floating) to match how
	// they are stored.
	switch {
	case ev.Start == nil:
		vevent.SetAllDayStartAt(ev.Date.In(time.UTC))
	default:
		vevent.SetProperty(ical.ComponentPropertyDtStart, ev.Start.On(ev.Date, time.UTC).Format(localDateTime))
		if ev.End != nil {
			vevent.SetProperty(ical.ComponentPropertyDtEnd, ev.End.On(ev.Date, time.UTC).Format(localDateTime))
		}
	}

	if rule != "" {
		vevent.AddRrule(rule)
	}
	if ev.Location != "" {
		vevent.SetLocation(ev.Location)
	}
	if ev.Notes != "" {
		vevent.SetDescription(ev.Notes)
	}
	vevent.SetColor(string(ev.Color.OrDefault()))
	return nil
}
