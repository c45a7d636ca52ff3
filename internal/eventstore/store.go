// Package eventstore holds the authoritative list of base events and mirrors
// it to durable key-value storage after every mutation.
package eventstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/example/crumb-calendar/internal/calendar"
	"github.com/example/crumb-calendar/internal/logging"
	"github.com/example/crumb-calendar/internal/persistence"
)

var (
	// ErrNotFound is returned when no event has the requested id.
	ErrNotFound = errors.New("eventstore: event not found")
	// ErrDuplicateID is returned when inserting an id that already exists.
	ErrDuplicateID = errors.New("eventstore: duplicate event id")
)

// PersistError reports that a mutation was applied in memory but the
// snapshot could not be written. The in-memory state stays authoritative and
// the next successful write carries the change.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("eventstore: %s applied but not persisted: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Store is the ordered in-memory event list. Order is insertion order and is
// used to break ties when rendering.
type Store struct {
	mu     sync.RWMutex
	events []calendar.Event
	kv     persistence.KeyValueStore
	key    string
	logger *slog.Logger
	dirty  bool
}

// Open loads the events snapshot from kv. A missing document starts an empty
// calendar; records that cannot be decoded are dropped with a warning.
func Open(ctx context.Context, kv persistence.KeyValueStore, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{kv: kv, key: persistence.KeyEvents, logger: logger.With("component", "eventstore")}
	if kv == nil {
		return s, nil
	}

	data, err := kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("eventstore: load snapshot: %w", err)
	}

	events, err := persistence.DecodeEvents(data)
	if err != nil {
		s.log(ctx).Warn("events snapshot contains unreadable records", "error", err, "loaded", len(events))
	}
	seen := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if _, dup := seen[ev.ID]; dup || ev.ID == "" {
			s.log(ctx).Warn("dropping event with missing or duplicate id", "event_id", ev.ID)
			continue
		}
		seen[ev.ID] = struct{}{}
		s.events = append(s.events, ev)
	}
	return s, nil
}

// List returns a copy of all base events in insertion order.
func (s *Store) List() []calendar.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]calendar.Event, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Clone()
	}
	return out
}

// Len returns the number of base events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Get returns the event with id.
func (s *Store) Get(id string) (calendar.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return calendar.Event{}, ErrNotFound
	}
	return s.events[i].Clone(), nil
}

// Insert appends ev. A *PersistError means the event was added but not saved.
func (s *Store) Insert(ctx context.Context, ev calendar.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.ID == "" {
		return fmt.Errorf("eventstore: event id is required")
	}
	if s.indexLocked(ev.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, ev.ID)
	}
	s.events = append(s.events, ev.Clone())
	return s.persistLocked(ctx, "insert")
}

// Replace overwrites the event with the same id, keeping its position.
func (s *Store) Replace(ctx context.Context, ev calendar.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(ev.ID)
	if i < 0 {
		return ErrNotFound
	}
	s.events[i] = ev.Clone()
	return s.persistLocked(ctx, "replace")
}

// Delete removes the event with id, and with it every occurrence.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return ErrNotFound
	}
	s.events = slices.Delete(s.events, i, i+1)
	return s.persistLocked(ctx, "delete")
}

// Dirty reports whether the last write attempt failed.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Flush writes the snapshot again, typically after an earlier failure.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx, "flush")
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.events, func(ev calendar.Event) bool { return ev.ID == id })
}

func (s *Store) persistLocked(ctx context.Context, op string) error {
	if s.kv == nil {
		return nil
	}
	data, err := persistence.EncodeEvents(s.events)
	if err == nil {
		err = s.kv.Put(ctx, s.key, data)
	}
	if err != nil {
		s.dirty = true
		s.log(ctx).Warn("events snapshot write failed", "op", op, "error", err)
		return &PersistError{Op: op, Err: err}
	}
	s.dirty = false
	return nil
}

func (s *Store) log(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger.With("component", "eventstore")
	}
	return s.logger
}
