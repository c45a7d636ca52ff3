package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/example/crumb-calendar/internal/calendar"
)

// EventRecord is the stored JSON shape of a base event.
type EventRecord struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime,omitempty"`
	EndTime    string `json:"endTime,omitempty"`
	Recurrence string `json:"recurrence"`
	Location   string `json:"location,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Color      string `json:"color,omitempty"`
}

// VisitRecord is the stored JSON shape of an itinerary stop.
type VisitRecord struct {
	Name          string `json:"name"`
	Title         string `json:"title,omitempty"`
	Date          string `json:"date"`
	Time          string `json:"time,omitempty"`
	Type          string `json:"type,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	Done          bool   `json:"done,omitempty"`
	Recurrence    string `json:"recurrence,omitempty"`
}

// EventToRecord converts an event into its stored shape.
func EventToRecord(ev calendar.Event) EventRecord {
	rec := EventRecord{
		ID:         ev.ID,
		Title:      ev.Title,
		Date:       ev.Date.String(),
		Recurrence: string(ev.Recurrence.OrNone()),
		Location:   ev.Location,
		Notes:      ev.Notes,
		Color:      string(ev.Color),
	}
	if ev.Start != nil {
		rec.StartTime = ev.Start.String()
	}
	if ev.End != nil {
		rec.EndTime = ev.End.String()
	}
	return rec
}

// EventFromRecord parses a stored event. Empty time strings mean absent.
func EventFromRecord(rec EventRecord) (calendar.Event, error) {
	date, err := civil.ParseDate(strings.TrimSpace(rec.Date))
	if err != nil {
		return calendar.Event{}, fmt.Errorf("%w: event %q date %q", ErrCorrupt, rec.ID, rec.Date)
	}
	start, err := optionalClock(rec.StartTime)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("%w: event %q startTime: %v", ErrCorrupt, rec.ID, err)
	}
	end, err := optionalClock(rec.EndTime)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("%w: event %q endTime: %v", ErrCorrupt, rec.ID, err)
	}
	recurrence, err := calendar.ParseRecurrence(rec.Recurrence)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("%w: event %q: %v", ErrCorrupt, rec.ID, err)
	}
	return calendar.Event{
		ID:         rec.ID,
		Title:      rec.Title,
		Date:       date,
		Start:      start,
		End:        end,
		Recurrence: recurrence,
		Location:   rec.Location,
		Notes:      rec.Notes,
		Color:      calendar.Color(rec.Color),
	}, nil
}

// EncodeEvents serialises the full event list.
func EncodeEvents(events []calendar.Event) ([]byte, error) {
	records := make([]EventRecord, 0, len(events))
	for _, ev := range events {
		records = append(records, EventToRecord(ev))
	}
	return json.Marshal(records)
}

// DecodeEvents parses an event list. Records that cannot be parsed are
// skipped and reported in the returned error; the valid ones are still
// returned.
func DecodeEvents(data []byte) ([]calendar.Event, error) {
	var records []EventRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	events := make([]calendar.Event, 0, len(records))
	var errs []error
	for _, rec := range records {
		ev, err := EventFromRecord(rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		events = append(events, ev)
	}
	return events, errors.Join(errs...)
}

// VisitFromRecord parses a stored itinerary stop.
func VisitFromRecord(rec VisitRecord) (calendar.Visit, error) {
	date, err := civil.ParseDate(strings.TrimSpace(rec.Date))
	if err != nil {
		return calendar.Visit{}, fmt.Errorf("%w: visit %q date %q", ErrCorrupt, rec.Name, rec.Date)
	}
	at, err := optionalClock(rec.Time)
	if err != nil {
		return calendar.Visit{}, fmt.Errorf("%w: visit %q time: %v", ErrCorrupt, rec.Name, err)
	}
	visitType := calendar.VisitType(strings.TrimSpace(rec.Type))
	if visitType == "" {
		visitType = calendar.VisitContact
	}
	return calendar.Visit{
		Name:          rec.Name,
		Title:         rec.Title,
		Date:          date,
		Time:          at,
		Type:          visitType,
		AccountNumber: rec.AccountNumber,
		Done:          rec.Done,
	}, nil
}

// DecodeVisits parses the itinerary document with the same skip-and-report
// behaviour as DecodeEvents.
func DecodeVisits(data []byte) ([]calendar.Visit, error) {
	var records []VisitRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	visits := make([]calendar.Visit, 0, len(records))
	var errs []error
	for _, rec := range records {
		v, err := VisitFromRecord(rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		visits = append(visits, v)
	}
	return visits, errors.Join(errs...)
}

func optionalClock(value string) (*calendar.Clock, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	c, err := calendar.ParseClock(value)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
