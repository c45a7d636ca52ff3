package application

import (
	"cloud.google.com/go/civil"

	"github.com/example/crumb-calendar/internal/calendar"
)

// EventInput captures the editor form fields as the user typed them. Dates
// are YYYY-MM-DD and times HH:MM; empty times mean "no time".
type EventInput struct {
	Title      string
	Date       string
	StartTime  string
	EndTime    string
	Recurrence string
	Location   string
	Notes      string
	Color      string
}

// InputFromEvent fills an editor form from a stored event.
func InputFromEvent(ev calendar.Event) EventInput {
	input := EventInput{
		Title:      ev.Title,
		Date:       ev.Date.String(),
		Recurrence: string(ev.Recurrence.OrNone()),
		Location:   ev.Location,
		Notes:      ev.Notes,
		Color:      string(ev.Color.OrDefault()),
	}
	if ev.Start != nil {
		input.StartTime = ev.Start.String()
	}
	if ev.End != nil {
		input.EndTime = ev.End.String()
	}
	return input
}

// CreateEventParams wraps the data required to create an event.
type CreateEventParams struct {
	Input EventInput
	// ConfirmConflicts commits even when the new event overlaps existing ones.
	ConfirmConflicts bool
}

// UpdateEventParams wraps the data required to update an existing event.
type UpdateEventParams struct {
	EventID          string
	Input            EventInput
	ConfirmConflicts bool
}

// ConflictWarning describes an existing occurrence that overlaps the
// candidate event.
type ConflictWarning struct {
	EventID string
	Title   string
	Date    civil.Date
	Start   calendar.Clock
	End     calendar.Clock
}

// String renders the warning for a confirmation prompt.
func (w ConflictWarning) String() string {
	return w.Title + " (" + w.Date.String() + " " + w.Start.String() + "-" + w.End.String() + ")"
}

// SaveResult reports the outcome of Create or Update.
//
// Committed is false when conflicts were found and not confirmed; nothing was
// written in that case. PersistWarning is set when the change was applied
// but could not be written to storage.
type SaveResult struct {
	Event          calendar.Event
	Committed      bool
	Conflicts      []ConflictWarning
	PersistWarning error
}

// DeleteResult reports the outcome of Delete.
type DeleteResult struct {
	EventID        string
	PersistWarning error
}

// Draft is a prefilled editor form. EventID is empty for new events.
// OccurrenceDate is the clicked date of a recurring series and is shown only
// for context; saving always edits the series.
type Draft struct {
	EventID        string
	Input          EventInput
	OccurrenceDate civil.Date
}

// IsNew reports whether saving the draft creates an event.
func (d Draft) IsNew() bool {
	return d.EventID == ""
}
