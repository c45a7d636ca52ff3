package itinerary

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAtomically(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o600))
	require.NoError(t, os.Rename(tmp, path))
}

func TestWatcherReloadsOnChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "visits.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	book := NewBook(nil)
	changed := make(chan error, 8)
	w, err := Watch(path, book, func(err error) { changed <- err }, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	writeAtomically(t, path, `[{"name":"Acme Foods","date":"2025-06-02","time":"10:00"}]`)

	select {
	case err := <-changed:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}
	assert.Equal(t, 1, book.Len())
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "visits.json")

	book := NewBook(nil)
	changed := make(chan error, 8)
	w, err := Watch(path, book, func(err error) { changed <- err }, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o600))

	select {
	case <-changed:
		t.Fatal("unexpected reload for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "Close must be idempotent")
}
