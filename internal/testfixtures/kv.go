package testfixtures

import (
	"context"
	"errors"
	"sync"

	"github.com/example/crumb-calendar/internal/persistence"
)

// ErrInjectedWrite is returned by FlakyStore while writes are failing.
var ErrInjectedWrite = errors.New("testfixtures: injected write failure")

// FlakyStore wraps a KeyValueStore and can be told to fail every write,
// simulating a full disk or revoked permissions.
type FlakyStore struct {
	persistence.KeyValueStore

	mu         sync.Mutex
	failWrites bool
	puts       int
}

var _ persistence.KeyValueStore = (*FlakyStore)(nil)

// NewFlakyStore wraps inner, or a fresh MemoryStore when inner is nil.
func NewFlakyStore(inner persistence.KeyValueStore) *FlakyStore {
	if inner == nil {
		inner = persistence.NewMemoryStore()
	}
	return &FlakyStore{KeyValueStore: inner}
}

// SetFailWrites toggles write failures.
func (s *FlakyStore) SetFailWrites(fail bool) {
	s.mu.Lock()
	s.failWrites = fail
	s.mu.Unlock()
}

// Puts returns how many Put calls reached the store, failed ones included.
func (s *FlakyStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// Put forwards to the wrapped store unless writes are failing.
func (s *FlakyStore) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.puts++
	fail := s.failWrites
	s.mu.Unlock()
	if fail {
		return errors.Join(persistence.ErrWriteFailed, ErrInjectedWrite)
	}
	return s.KeyValueStore.Put(ctx, key, value)
}
