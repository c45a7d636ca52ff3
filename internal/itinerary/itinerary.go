// Package itinerary reads the delivery-day visits that the calendar shows
// read-only next to its own events.
package itinerary

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"sync"

	"cloud.google.com/go/civil"

	"github.com/example/crumb-calendar/internal/calendar"
	"github.com/example/crumb-calendar/internal/persistence"
)

// ByDate groups visits by day, keeping list order within a day.
type ByDate map[civil.Date][]calendar.Visit

// Group buckets visits by their date.
func Group(visits []calendar.Visit) ByDate {
	out := make(ByDate)
	for _, v := range visits {
		out[v.Date] = append(out[v.Date], v)
	}
	return out
}

// Range returns the visits on dates in [from, to).
func (b ByDate) Range(from, to civil.Date) ByDate {
	out := make(ByDate)
	for d, visits := range b {
		if !d.Before(from) && d.Before(to) {
			out[d] = slices.Clone(visits)
		}
	}
	return out
}

// Len returns the total number of visits.
func (b ByDate) Len() int {
	n := 0
	for _, visits := range b {
		n += len(visits)
	}
	return n
}

// Decode parses a visitData document. Unreadable records are skipped and
// reported in the returned error alongside the visits that did parse; a
// document that is not a JSON array yields nil.
func Decode(data []byte) (ByDate, error) {
	visits, err := persistence.DecodeVisits(data)
	if visits == nil && err != nil {
		return nil, err
	}
	return Group(visits), err
}

// LoadStore reads the visitData document from kv. A missing document is an
// empty itinerary.
func LoadStore(ctx context.Context, kv persistence.KeyValueStore) (ByDate, error) {
	data, err := kv.Get(ctx, persistence.KeyVisits)
	if errors.Is(err, persistence.ErrNotFound) {
		return ByDate{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("itinerary: load: %w", err)
	}
	return Decode(data)
}

// LoadFile reads a visitData document exported to path. A missing file is
// an empty itinerary.
func LoadFile(path string) (ByDate, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ByDate{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("itinerary: read %s: %w", path, err)
	}
	return Decode(data)
}

// Book is the current itinerary, safe to read while a Watcher replaces it.
type Book struct {
	mu     sync.RWMutex
	visits ByDate
}

// NewBook returns a book holding visits.
func NewBook(visits ByDate) *Book {
	if visits == nil {
		visits = ByDate{}
	}
	return &Book{visits: visits}
}

// Visits returns the visits in [from, to).
func (b *Book) Visits(from, to civil.Date) ByDate {
	if b == nil {
		return ByDate{}
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.visits.Range(from, to)
}

// Len returns the number of visits held.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.visits.Len()
}

// Replace swaps in a new itinerary.
func (b *Book) Replace(visits ByDate) {
	if visits == nil {
		visits = ByDate{}
	}
	b.mu.Lock()
	b.visits = visits
	b.mu.Unlock()
}

// ReloadFile re-reads path into the book. Partially readable documents still
// replace the book and the decode error is logged; unreadable ones leave the
// book unchanged.
func (b *Book) ReloadFile(ctx context.Context, path string, logger *slog.Logger) error {
	visits, err := LoadFile(path)
	if visits == nil {
		return err
	}
	if err != nil && logger != nil {
		logger.WarnContext(ctx, "itinerary contains unreadable visits", "path", path, "error", err)
	}
	b.Replace(visits)
	return nil
}
