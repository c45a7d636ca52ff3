package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/example/crumb-calendar/internal/calendar"
	"github.com/example/crumb-calendar/internal/eventstore"
	"github.com/example/crumb-calendar/internal/grid"
	"github.com/example/crumb-calendar/internal/persistence"
	"github.com/example/crumb-calendar/internal/recurrence"
	"github.com/example/crumb-calendar/internal/scheduler"
)

// DefaultDraftTime is the start time proposed when a draft has no time.
var DefaultDraftTime = calendar.MustClock(8, 0)

// EventRepository captures the store interactions needed by the service.
// *eventstore.Store satisfies it.
type EventRepository interface {
	List() []calendar.Event
	Get(id string) (calendar.Event, error)
	Insert(ctx context.Context, ev calendar.Event) error
	Replace(ctx context.Context, ev calendar.Event) error
	Delete(ctx context.Context, id string) error
}

// EventService validates editor input, checks overlaps and commits events.
type EventService struct {
	events      EventRepository
	engine      *recurrence.Engine
	detector    *scheduler.Detector
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEventService wires dependencies for event operations.
func NewEventService(events EventRepository, engine *recurrence.Engine, idGenerator func() string, now func() time.Time) *EventService {
	return NewEventServiceWithLogger(events, engine, idGenerator, now, nil)
}

// NewEventServiceWithLogger constructs an EventService with a specified logger.
func NewEventServiceWithLogger(events EventRepository, engine *recurrence.Engine, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventService {
	if engine == nil {
		engine = recurrence.NewEngine()
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{
		events:      events,
		engine:      engine,
		detector:    scheduler.NewDetector(engine),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *EventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EventService", operation, attrs...)
}

// Create validates the input, checks it against existing occurrences and
// inserts it. Unconfirmed conflicts leave the store untouched.
func (s *EventService) Create(ctx context.Context, params CreateEventParams) (result SaveResult, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Create")
	defer func() { s.logSave(ctx, logger, "event created", result, err) }()

	if s.events == nil {
		err = ErrNotConfigured
		return
	}

	ev, vErr := buildEvent(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	result.Event = ev
	result.Conflicts = s.conflicts(ev, "")
	if len(result.Conflicts) > 0 && !params.ConfirmConflicts {
		return
	}

	ev.ID = s.idGenerator()
	if ev.ID == "" {
		err = fmt.Errorf("application: id generator returned an empty id")
		return
	}
	result.Event = ev

	if err = s.events.Insert(ctx, ev); err != nil {
		if result.PersistWarning, err = splitPersistError(err); err != nil {
			err = mapStoreError(err)
			return
		}
	}
	result.Committed = true
	return
}

// Update overwrites every field of an existing event except its id.
func (s *EventService) Update(ctx context.Context, params UpdateEventParams) (result SaveResult, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Update", "event_id", params.EventID)
	defer func() { s.logSave(ctx, logger, "event updated", result, err) }()

	if s.events == nil {
		err = ErrNotConfigured
		return
	}

	if _, err = s.events.Get(params.EventID); err != nil {
		err = mapStoreError(err)
		return
	}

	ev, vErr := buildEvent(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	ev.ID = params.EventID

	result.Event = ev
	result.Conflicts = s.conflicts(ev, ev.ID)
	if len(result.Conflicts) > 0 && !params.ConfirmConflicts {
		return
	}

	if err = s.events.Replace(ctx, ev); err != nil {
		if result.PersistWarning, err = splitPersistError(err); err != nil {
			err = mapStoreError(err)
			return
		}
	}
	result.Committed = true
	return
}

// Delete removes the base event and with it every occurrence of the series.
func (s *EventService) Delete(ctx context.Context, id string) (result DeleteResult, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Delete", "event_id", id)
	defer func() {
		switch {
		case err != nil:
			logger.ErrorContext(ctx, "failed to delete event", "error", err, "error_kind", ErrorKind(err))
		case result.PersistWarning != nil:
			logger.WarnContext(ctx, "event deleted but not persisted", "error", result.PersistWarning, "error_kind", ErrorKind(result.PersistWarning))
		default:
			logger.InfoContext(ctx, "event deleted")
		}
	}()

	if s.events == nil {
		err = ErrNotConfigured
		return
	}

	result.EventID = id
	if err = s.events.Delete(ctx, id); err != nil {
		if result.PersistWarning, err = splitPersistError(err); err != nil {
			err = mapStoreError(err)
			return
		}
	}
	return
}

// CheckConflicts validates input and lists the occurrences it would overlap.
// excludeID is the id of the event being edited, or empty for a new event.
func (s *EventService) CheckConflicts(ctx context.Context, input EventInput, excludeID string) ([]ConflictWarning, error) {
	if s == nil {
		return nil, fmt.Errorf("EventService is nil")
	}
	if s.events == nil {
		return nil, ErrNotConfigured
	}
	ev, vErr := buildEvent(input)
	if vErr.HasErrors() {
		return nil, vErr
	}
	return s.conflicts(ev, excludeID), nil
}

// Get returns the base event with id.
func (s *EventService) Get(ctx context.Context, id string) (calendar.Event, error) {
	if s == nil || s.events == nil {
		return calendar.Event{}, ErrNotConfigured
	}
	ev, err := s.events.Get(id)
	if err != nil {
		return calendar.Event{}, mapStoreError(err)
	}
	return ev, nil
}

// List returns every base event in store order.
func (s *EventService) List(ctx context.Context) ([]calendar.Event, error) {
	if s == nil || s.events == nil {
		return nil, ErrNotConfigured
	}
	return s.events.List(), nil
}

// Occurrences expands every base event over [from, to), ordered by date and
// then store order.
func (s *EventService) Occurrences(ctx context.Context, from, to civil.Date) ([]calendar.Occurrence, error) {
	if s == nil || s.events == nil {
		return nil, ErrNotConfigured
	}
	return s.engine.Expand(s.events.List(), from, to), nil
}

// DraftAt prefills a new event on date. A nil time falls back to
// DefaultDraftTime.
func (s *EventService) DraftAt(date civil.Date, at *calendar.Clock) Draft {
	start := DefaultDraftTime
	if at != nil {
		start = *at
	}
	return Draft{
		Input: EventInput{
			Date:       date.String(),
			StartTime:  start.String(),
			Recurrence: string(calendar.RecurrenceNone),
			Color:      string(calendar.DefaultColor),
		},
	}
}

// DraftForNow prefills a new event for today at the current wall-clock
// minute.
func (s *EventService) DraftForNow() Draft {
	now := s.now()
	at := calendar.ClockOf(now)
	return s.DraftAt(civil.DateOf(now), &at)
}

// DraftFromCreate prefills a new event from a double-click on an empty cell.
func (s *EventService) DraftFromCreate(req grid.CreateRequest) Draft {
	at := req.Time
	return s.DraftAt(req.Date, &at)
}

// DraftFromEdit prefills the editor with the series behind a clicked
// occurrence.
func (s *EventService) DraftFromEdit(req grid.EditRequest) Draft {
	return Draft{
		EventID:        req.Event.ID,
		Input:          InputFromEvent(req.Event),
		OccurrenceDate: req.OccurrenceDate,
	}
}

// Save commits a draft, creating or updating depending on its id.
func (s *EventService) Save(ctx context.Context, draft Draft, confirmConflicts bool) (SaveResult, error) {
	if draft.IsNew() {
		return s.Create(ctx, CreateEventParams{Input: draft.Input, ConfirmConflicts: confirmConflicts})
	}
	return s.Update(ctx, UpdateEventParams{EventID: draft.EventID, Input: draft.Input, ConfirmConflicts: confirmConflicts})
}

func (s *EventService) conflicts(candidate calendar.Event, excludeID string) []ConflictWarning {
	start, end, ok := candidate.Interval()
	if !ok {
		return nil
	}
	found := s.detector.DetectConflicts(candidate.Date, start, end, s.events.List(), excludeID)
	return toConflictWarnings(found)
}

func (s *EventService) logSave(ctx context.Context, logger *slog.Logger, msg string, result SaveResult, err error) {
	switch {
	case err != nil:
		logger.ErrorContext(ctx, "failed to save event", "error", err, "error_kind", ErrorKind(err))
	case !result.Committed:
		logger.InfoContext(ctx, "event not saved, conflicts need confirmation", "conflict_count", len(result.Conflicts))
	case result.PersistWarning != nil:
		logger.With("event_id", result.Event.ID).WarnContext(ctx, msg+" but not persisted",
			"error", result.PersistWarning, "error_kind", ErrorKind(result.PersistWarning))
	default:
		logger.With("event_id", result.Event.ID, "conflict_count", len(result.Conflicts)).InfoContext(ctx, msg)
	}
}

func toConflictWarnings(conflicts []scheduler.Conflict) []ConflictWarning {
	if len(conflicts) == 0 {
		return nil
	}
	warnings := make([]ConflictWarning, 0, len(conflicts))
	for _, c := range conflicts {
		warnings = append(warnings, ConflictWarning{
			EventID: c.WithEventID,
			Title:   c.Title,
			Date:    c.Date,
			Start:   c.Start,
			End:     c.End,
		})
	}
	return warnings
}

// buildEvent turns form input into an event without an id.
func buildEvent(input EventInput) (calendar.Event, *ValidationError) {
	vErr := &ValidationError{}
	ev := calendar.Event{
		Title:    strings.TrimSpace(input.Title),
		Location: strings.TrimSpace(input.Location),
		Notes:    input.Notes,
	}

	if ev.Title == "" {
		vErr.add("title", "title is required")
	}

	if raw := strings.TrimSpace(input.Date); raw == "" {
		vErr.add("date", "date is required")
	} else if d, err := civil.ParseDate(raw); err != nil || !d.IsValid() {
		vErr.add("date", "date must be YYYY-MM-DD")
	} else {
		ev.Date = d
	}

	ev.Start = parseOptionalClock(input.StartTime, "start_time", vErr)
	ev.End = parseOptionalClock(input.EndTime, "end_time", vErr)
	switch {
	case ev.End != nil && ev.Start == nil && vErr.FieldErrors["start_time"] == "":
		vErr.add("end_time", "end time requires a start time")
	case ev.Start != nil && ev.End != nil && !ev.Start.Before(*ev.End):
		vErr.add("end_time", "end time must be after start time")
	}

	rec, err := calendar.ParseRecurrence(input.Recurrence)
	if err != nil {
		vErr.add("recurrence", "recurrence must be one of none, daily, weekly, biweekly, monthly")
	}
	ev.Recurrence = rec

	color := calendar.Color(strings.TrimSpace(input.Color)).OrDefault()
	if !color.Valid() {
		vErr.add("color", "color must be one of the palette colors")
	}
	ev.Color = color

	return ev, vErr
}

func parseOptionalClock(raw, field string, vErr *ValidationError) *calendar.Clock {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	c, err := calendar.ParseClock(raw)
	if err != nil {
		vErr.add(field, "time must be HH:MM")
		return nil
	}
	return &c
}

// splitPersistError separates a write failure, which still counts as a
// commit, from errors that prevented the mutation.
func splitPersistError(err error) (warning error, failure error) {
	var pErr *eventstore.PersistError
	if errors.As(err, &pErr) {
		return err, nil
	}
	return nil, err
}

func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, eventstore.ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
