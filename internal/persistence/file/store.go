// Package file stores calendar documents as JSON files in a directory, one
// file per key.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/example/crumb-calendar/internal/persistence"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Store is a directory-backed persistence.KeyValueStore. Writes go to a
// temporary file that is renamed over the target, so a crash never leaves a
// half-written document behind.
type Store struct {
	dir string
	mu  sync.RWMutex
}

var _ persistence.KeyValueStore = (*Store)(nil)

// NewStore creates dir if needed and returns a Store rooted there.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory holding the documents.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file that holds key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get reads the document stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	if !validKey.MatchString(key) {
		return nil, fmt.Errorf("file: invalid key %q", key)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("file: read %q: %w", key, err)
	}
	return data, nil
}

// Put atomically replaces the document stored under key.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("%w: invalid key %q", persistence.ErrWriteFailed, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(s.dir, s.Path(key), value); err != nil {
		return fmt.Errorf("%w: file put %q: %v", persistence.ErrWriteFailed, key, err)
	}
	return nil
}

// Delete removes the document for key. Deleting a missing key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("%w: invalid key %q", persistence.ErrWriteFailed, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: file delete %q: %v", persistence.ErrWriteFailed, key, err)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".crumbcal-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
