package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/crumb-calendar/internal/persistence"
)

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	store, err := NewStore(dir)
	require.NoError(t, err)

	_, err = store.Get(ctx, persistence.KeyEvents)
	require.ErrorIs(t, err, persistence.ErrNotFound)

	require.NoError(t, store.Put(ctx, persistence.KeyEvents, []byte(`[1]`)))
	require.NoError(t, store.Put(ctx, persistence.KeyEvents, []byte(`[2]`)))

	got, err := store.Get(ctx, persistence.KeyEvents)
	require.NoError(t, err)
	assert.Equal(t, "[2]", string(got))

	info, err := os.Stat(store.Path(persistence.KeyEvents))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")

	require.NoError(t, store.Delete(ctx, persistence.KeyEvents))
	require.NoError(t, store.Delete(ctx, persistence.KeyEvents))
	_, err = store.Get(ctx, persistence.KeyEvents)
	require.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestStore_RejectsPathKeys(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	err = store.Put(context.Background(), "../escape", []byte("x"))
	require.ErrorIs(t, err, persistence.ErrWriteFailed)

	_, err = store.Get(context.Background(), "a/b")
	require.Error(t, err)
}

func TestStore_WriteFailureIsReported(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	err = store.Put(context.Background(), persistence.KeyEvents, []byte(`[]`))
	require.ErrorIs(t, err, persistence.ErrWriteFailed)
}
