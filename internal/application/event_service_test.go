package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/example/crumb-calendar/internal/calendar"
	"github.com/example/crumb-calendar/internal/eventstore"
	"github.com/example/crumb-calendar/internal/grid"
	"github.com/example/crumb-calendar/internal/persistence"
)

var fixedNow = time.Date(2025, time.June, 2, 14, 5, 0, 0, time.Local)

type eventRepoStub struct {
	events    []calendar.Event
	inserted  []calendar.Event
	replaced  []calendar.Event
	deleted   []string
	writeErr  error
	insertErr error
}

func (s *eventRepoStub) List() []calendar.Event {
	out := make([]calendar.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *eventRepoStub) Get(id string) (calendar.Event, error) {
	for _, ev := range s.events {
		if ev.ID == id {
			return ev, nil
		}
	}
	return calendar.Event{}, eventstore.ErrNotFound
}

func (s *eventRepoStub) Insert(_ context.Context, ev calendar.Event) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, ev)
	s.events = append(s.events, ev)
	return s.writeErr
}

func (s *eventRepoStub) Replace(_ context.Context, ev calendar.Event) error {
	for i := range s.events {
		if s.events[i].ID == ev.ID {
			s.events[i] = ev
			s.replaced = append(s.replaced, ev)
			return s.writeErr
		}
	}
	return eventstore.ErrNotFound
}

func (s *eventRepoStub) Delete(_ context.Context, id string) error {
	for i := range s.events {
		if s.events[i].ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			s.deleted = append(s.deleted, id)
			return s.writeErr
		}
	}
	return eventstore.ErrNotFound
}

func sequentialIDs(ids ...string) func() string {
	return func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
}

func newTestService(repo EventRepository, ids ...string) *EventService {
	if len(ids) == 0 {
		ids = []string{"evt-1", "evt-2", "evt-3"}
	}
	return NewEventService(repo, nil, sequentialIDs(ids...), func() time.Time { return fixedNow })
}

func clockPtr(h, m int) *calendar.Clock {
	c := calendar.MustClock(h, m)
	return &c
}

func standup() calendar.Event {
	return calendar.Event{
		ID:         "standup",
		Title:      "Standup",
		Date:       civil.Date{Year: 2024, Month: time.June, Day: 3},
		Start:      clockPtr(9, 0),
		End:        clockPtr(10, 0),
		Recurrence: calendar.RecurrenceWeekly,
		Color:      calendar.DefaultColor,
	}
}

func TestEventService_CreateValidInput(t *testing.T) {
	t.Parallel()

	repo := &eventRepoStub{}
	svc := newTestService(repo)

	result, err := svc.Create(context.Background(), CreateEventParams{Input: EventInput{
		Title:      "  Depot pickup  ",
		Date:       "2025-06-03",
		StartTime:  "9:30",
		EndTime:    "10:15",
		Recurrence: "weekly",
		Location:   "Warehouse 2",
		Color:      "#E74C3C",
	}})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !result.Committed || result.PersistWarning != nil || len(result.Conflicts) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	ev := result.Event
	if ev.ID != "evt-1" || ev.Title != "Depot pickup" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Start.String() != "09:30" || ev.End.String() != "10:15" {
		t.Fatalf("unexpected times %s-%s", ev.Start, ev.End)
	}
	if ev.Recurrence != calendar.RecurrenceWeekly || ev.Color != "#e74c3c" {
		t.Fatalf("unexpected recurrence/color: %s %s", ev.Recurrence, ev.Color)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(repo.inserted))
	}
}

func TestEventService_CreateDefaults(t *testing.T) {
	t.Parallel()

	repo := &eventRepoStub{}
	svc := newTestService(repo)

	result, err := svc.Create(context.Background(), CreateEventParams{Input: EventInput{Title: "Holiday", Date: "2025-06-05"}})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	ev := result.Event
	if ev.Start != nil || ev.End != nil {
		t.Fatalf("expected an untimed event, got %+v", ev)
	}
	if ev.Recurrence != calendar.RecurrenceNone || ev.Color != calendar.DefaultColor {
		t.Fatalf("expected defaults, got %s %s", ev.Recurrence, ev.Color)
	}
}

func TestEventService_CreateValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input EventInput
		field string
	}{
		{name: "missing title", input: EventInput{Title: "  ", Date: "2025-06-02"}, field: "title"},
		{name: "missing date", input: EventInput{Title: "x"}, field: "date"},
		{name: "bad date", input: EventInput{Title: "x", Date: "2025-02-30"}, field: "date"},
		{name: "bad start", input: EventInput{Title: "x", Date: "2025-06-02", StartTime: "25:00"}, field: "start_time"},
		{name: "end before start", input: EventInput{Title: "x", Date: "2025-06-02", StartTime: "10:00", EndTime: "09:00"}, field: "end_time"},
		{name: "end equals start", input: EventInput{Title: "x", Date: "2025-06-02", StartTime: "10:00", EndTime: "10:00"}, field: "end_time"},
		{name: "end without start", input: EventInput{Title: "x", Date: "2025-06-02", EndTime: "10:00"}, field: "end_time"},
		{name: "unknown recurrence", input: EventInput{Title: "x", Date: "2025-06-02", Recurrence: "yearly"}, field: "recurrence"},
		{name: "off-palette color", input: EventInput{Title: "x", Date: "2025-06-02", Color: "#000000"}, field: "color"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &eventRepoStub{}
			svc := newTestService(repo)
			_, err := svc.Create(context.Background(), CreateEventParams{Input: tc.input})

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected %s error, got %v", tc.field, vErr.FieldErrors)
			}
			if len(repo.inserted) != 0 {
				t.Fatalf("validation failure must not write")
			}
		})
	}
}

func TestEventService_CreateConflictNeedsConfirmation(t *testing.T) {
	t.Parallel()

	repo := &eventRepoStub{events: []calendar.Event{standup()}}
	svc := newTestService(repo)
	input := EventInput{Title: "Client call", Date: "2025-06-09", StartTime: "09:30", EndTime: "10:30"}

	result, err := svc.Create(context.Background(), CreateEventParams{Input: input})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if result.Committed {
		t.Fatalf("expected the create to wait for confirmation")
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].EventID != "standup" {
		t.Fatalf("unexpected conflicts: %+v", result.Conflicts)
	}
	if got := result.Conflicts[0].String(); got != "Standup (2025-06-09 09:00-10:00)" {
		t.Fatalf("unexpected conflict text %q", got)
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("unconfirmed conflict must not write")
	}

	confirmed, err := svc.Create(context.Background(), CreateEventParams{Input: input, ConfirmConflicts: true})
	if err != nil {
		t.Fatalf("confirmed Create returned error: %v", err)
	}
	if !confirmed.Committed || confirmed.Event.ID != "evt-1" || len(confirmed.Conflicts) != 1 {
		t.Fatalf("unexpected confirmed result: %+v", confirmed)
	}
}

func TestEventService_CreateWithoutConflict(t *testing.T) {
	t.Parallel()

	repo := &eventRepoStub{events: []calendar.Event{standup()}}
	svc := newTestService(repo)

	for _, input := range []EventInput{
		{Title: "Touching", Date: "2025-06-09", StartTime: "10:00", EndTime: "11:00"},
		{Title: "Tuesday", Date: "2025-06-10", StartTime: "09:30", EndTime: "10:30"},
		{Title: "Start only", Date: "2025-06-09", StartTime: "09:30"},
	} {
		result, err := svc.Create(context.Background(), CreateEventParams{Input: input})
		if err != nil {
			t.Fatalf("Create(%s) returned error: %v", input.Title, err)
		}
		if !result.Committed || len(result.Conflicts) != 0 {
			t.Fatalf("expected %s to commit without conflicts, got %+v", input.Title, result)
		}
	}
}

func TestEventService_UpdateExcludesItself(t *testing.T) {
	t.Parallel()

	repo := &eventRepoStub{events: []calendar.Event{standup()}}
	svc := newTestService(repo)

	input := InputFromEvent(standup())
	input.StartTime = "09:15"
	input.EndTime = "10:15"

	result, err := svc.Update(context.Background(), UpdateEventParams{EventID: "standup", Input: input})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if !result.Committed || len(result.Conflicts) != 0 {
		t.Fatalf("an event must not conflict with itself: %+v", result)
	}
	if len(repo.replaced) != 1 || repo.replaced[0].ID != "standup" || repo.replaced[0].Start.String() != "09:15" {
		t.Fatalf("unexpected replace: %+v", repo.replaced)
	}
}

func TestEventService_UpdateUnknownID(t *testing.T) {
	t.Parallel()

	repo := &eventRepoStub{events: []calendar.Event{standup()}}
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), UpdateEventParams{EventID: "missing", Input: InputFromEvent(standup())})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(repo.replaced) != 0 {
		t.Fatalf("unknown id must not write")
	}
}

func TestEventService_Delete(t *testing.T) {
	t.Parallel()

	repo := &eventRepoStub{events: []calendar.Event{standup()}}
	svc := newTestService(repo)

	result, err := svc.Delete(context.Background(), "standup")
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if result.EventID != "standup" || result.PersistWarning != nil {
		t.Fatalf("unexpected result: %+v", result)
	}

	occurrences, err := svc.Occurrences(context.Background(), civil.Date{Year: 2025, Month: time.June, Day: 1}, civil.Date{Year: 2025, Month: time.July, Day: 1})
	if err != nil {
		t.Fatalf("Occurrences returned error: %v", err)
	}
	if len(occurrences) != 0 {
		t.Fatalf("expected no occurrences after delete, got %d", len(occurrences))
	}

	if _, err := svc.Delete(context.Background(), "standup"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestEventService_PersistFailureIsAWarning(t *testing.T) {
	t.Parallel()

	writeErr := &eventstore.PersistError{Op: "insert", Err: persistence.ErrWriteFailed}
	repo := &eventRepoStub{writeErr: writeErr}
	svc := newTestService(repo)

	result, err := svc.Create(context.Background(), CreateEventParams{Input: EventInput{Title: "Offline", Date: "2025-06-02"}})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !result.Committed {
		t.Fatalf("expected the in-memory commit to stand")
	}
	if !errors.Is(result.PersistWarning, persistence.ErrWriteFailed) {
		t.Fatalf("expected persist warning, got %v", result.PersistWarning)
	}
	if ErrorKind(result.PersistWarning) != "persistence" {
		t.Fatalf("unexpected error kind %q", ErrorKind(result.PersistWarning))
	}

	del, err := svc.Delete(context.Background(), result.Event.ID)
	if err != nil || del.PersistWarning == nil {
		t.Fatalf("expected delete to report a persist warning, got %+v %v", del, err)
	}
}

func TestEventService_StoreFailureIsAnError(t *testing.T) {
	t.Parallel()

	repo := &eventRepoStub{insertErr: errors.New("boom")}
	svc := newTestService(repo)

	result, err := svc.Create(context.Background(), CreateEventParams{Input: EventInput{Title: "x", Date: "2025-06-02"}})
	if err == nil || result.Committed {
		t.Fatalf("expected failure, got %+v %v", result, err)
	}
}

func TestEventService_CheckConflicts(t *testing.T) {
	t.Parallel()

	repo := &eventRepoStub{events: []calendar.Event{standup()}}
	svc := newTestService(repo)
	input := EventInput{Title: "x", Date: "2025-06-16", StartTime: "08:30", EndTime: "09:30"}

	warnings, err := svc.CheckConflicts(context.Background(), input, "")
	if err != nil {
		t.Fatalf("CheckConflicts returned error: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %+v", warnings)
	}

	warnings, err = svc.CheckConflicts(context.Background(), input, "standup")
	if err != nil || len(warnings) != 0 {
		t.Fatalf("expected no warnings when excluding the series, got %+v %v", warnings, err)
	}

	if _, err := svc.CheckConflicts(context.Background(), EventInput{}, ""); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestEventService_Drafts(t *testing.T) {
	t.Parallel()

	svc := newTestService(&eventRepoStub{})
	day := civil.Date{Year: 2025, Month: time.June, Day: 4}

	if got := svc.DraftAt(day, nil).Input; got.Date != "2025-06-04" || got.StartTime != "08:00" {
		t.Fatalf("expected default 08:00 draft, got %+v", got)
	}

	now := svc.DraftForNow()
	if !now.IsNew() || now.Input.Date != "2025-06-02" || now.Input.StartTime != "14:05" {
		t.Fatalf("unexpected draft for now: %+v", now)
	}

	create := svc.DraftFromCreate(grid.CreateRequest{Date: day, Time: calendar.MustClock(13, 30)})
	if create.Input.StartTime != "13:30" || create.Input.EndTime != "" {
		t.Fatalf("unexpected create draft: %+v", create.Input)
	}

	occurrence := civil.Date{Year: 2025, Month: time.June, Day: 16}
	edit := svc.DraftFromEdit(grid.EditRequest{Event: standup(), OccurrenceDate: occurrence})
	if edit.IsNew() || edit.EventID != "standup" || edit.OccurrenceDate != occurrence {
		t.Fatalf("unexpected edit draft: %+v", edit)
	}
	if edit.Input.Date != "2024-06-03" || edit.Input.Recurrence != "weekly" || edit.Input.EndTime != "10:00" {
		t.Fatalf("expected the series anchor in the form, got %+v", edit.Input)
	}
}

func TestEventService_SaveDispatchesOnDraft(t *testing.T) {
	t.Parallel()

	repo := &eventRepoStub{events: []calendar.Event{standup()}}
	svc := newTestService(repo)

	edit := svc.DraftFromEdit(grid.EditRequest{Event: standup()})
	edit.Input.Title = "Daily sync"
	if _, err := svc.Save(context.Background(), edit, false); err != nil {
		t.Fatalf("Save(edit) returned error: %v", err)
	}
	if len(repo.replaced) != 1 || repo.replaced[0].Title != "Daily sync" {
		t.Fatalf("expected an update, got %+v", repo.replaced)
	}

	draft := svc.DraftAt(civil.Date{Year: 2025, Month: time.June, Day: 3}, nil)
	draft.Input.Title = "Route"
	if _, err := svc.Save(context.Background(), draft, false); err != nil {
		t.Fatalf("Save(new) returned error: %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected an insert, got %+v", repo.inserted)
	}
}

func TestEventService_NilRepository(t *testing.T) {
	t.Parallel()

	svc := NewEventService(nil, nil, nil, nil)
	if _, err := svc.Create(context.Background(), CreateEventParams{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := svc.List(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
