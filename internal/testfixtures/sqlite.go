package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/crumb-calendar/internal/persistence/sqlite"
)

// SQLiteHarness provides a migrated SQLite key-value store in a temporary
// directory for integration-style persistence tests.
type SQLiteHarness struct {
	Store *sqlite.Storage
	Path  string

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// Reopen closes the current handle and opens the same file again, which is
// how tests simulate an application restart.
func (h *SQLiteHarness) Reopen(tb testing.TB) *sqlite.Storage {
	tb.Helper()
	h.Close()
	h.Store = openSQLite(tb, h.Path)
	store := h.Store
	h.cleanup = func() { _ = store.Close() }
	return h.Store
}

// NewSQLiteHarness opens a database file under tb.TempDir. The handle is
// closed automatically when the test finishes.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "crumbcal.db")
	store := openSQLite(tb, path)
	harness := &SQLiteHarness{
		Store: store,
		Path:  path,
		cleanup: func() {
			_ = store.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}

func openSQLite(tb testing.TB, path string) *sqlite.Storage {
	tb.Helper()
	store, err := sqlite.Open(context.Background(), sqlite.DefaultConfig(path), nil)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	return store
}
