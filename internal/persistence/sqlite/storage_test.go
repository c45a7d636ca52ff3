package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/crumb-calendar/internal/persistence"
)

func openTemp(t *testing.T) (*Storage, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "crumbcal.db")
	storage, err := Open(context.Background(), DefaultConfig(path), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage, path
}

func TestStorage_PutGetDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage, _ := openTemp(t)

	_, err := storage.Get(ctx, persistence.KeyEvents)
	require.ErrorIs(t, err, persistence.ErrNotFound)

	require.NoError(t, storage.Put(ctx, persistence.KeyEvents, []byte(`[{"id":"1"}]`)))
	require.NoError(t, storage.Put(ctx, persistence.KeyEvents, []byte(`[{"id":"2"}]`)))

	got, err := storage.Get(ctx, persistence.KeyEvents)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"2"}]`, string(got))

	keys, err := storage.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{persistence.KeyEvents}, keys)

	require.NoError(t, storage.Delete(ctx, persistence.KeyEvents))
	_, err = storage.Get(ctx, persistence.KeyEvents)
	require.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestStorage_ReopenKeepsDocumentsAndSchema(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage, path := openTemp(t)
	require.NoError(t, storage.Put(ctx, persistence.KeyVisits, []byte(`[]`)))
	require.NoError(t, storage.Close())

	reopened, err := Open(ctx, DefaultConfig(path), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.Get(ctx, persistence.KeyVisits)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	versions, err := reopened.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"001"}, versions)
}

func TestStorage_InMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage, err := Open(ctx, InMemoryConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	require.NoError(t, storage.Put(ctx, "k", []byte("v")))
	got, err := storage.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	require.Error(t, Config{}.Validate())
	bad := DefaultConfig("x.db")
	bad.JournalMode = "FANCY"
	require.Error(t, bad.Validate())
	require.NoError(t, DefaultConfig("x.db").Validate())
}

func TestWithRetry(t *testing.T) {
	t.Parallel()

	cfg := RetryConfig{MaxRetries: 2, BackoffFactor: 2}

	calls := 0
	err := withRetry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	permanent := errors.New("syntax error")
	err = withRetry(context.Background(), cfg, func() error {
		calls++
		return permanent
	})
	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}
