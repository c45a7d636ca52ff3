package itinerary

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/crumb-calendar/internal/calendar"
	"github.com/example/crumb-calendar/internal/persistence"
)

const visitsDoc = `[
	{"name":"Acme Foods","title":"Delivery","date":"2025-06-02","time":"10:00","type":"contact","accountNumber":"A-1"},
	{"name":"Bakery Bros","date":"2025-06-02","type":"prospect"},
	{"name":"Corner Shop","date":"2025-06-04","time":"14:30","done":true},
	{"name":"Broken","date":"someday"}
]`

func day(d int) civil.Date {
	return civil.Date{Year: 2025, Month: time.June, Day: d}
}

func TestDecodeGroupsByDate(t *testing.T) {
	t.Parallel()

	visits, err := Decode([]byte(visitsDoc))
	require.ErrorIs(t, err, persistence.ErrCorrupt)
	require.Equal(t, 3, visits.Len())

	monday := visits[day(2)]
	require.Len(t, monday, 2)
	assert.Equal(t, "Acme Foods", monday[0].Name)
	assert.Equal(t, "10:00", monday[0].Time.String())
	assert.Equal(t, calendar.VisitProspect, monday[1].Type)
	assert.Nil(t, monday[1].Time)

	wednesday := visits[day(4)]
	require.Len(t, wednesday, 1)
	assert.True(t, wednesday[0].Done)
	assert.Equal(t, calendar.VisitContact, wednesday[0].Type)

	_, err = Decode([]byte(`{"not":"an array"}`))
	require.Error(t, err)
}

func TestRange(t *testing.T) {
	t.Parallel()

	visits, _ := Decode([]byte(visitsDoc))
	in := visits.Range(day(3), day(10))
	assert.Equal(t, 1, in.Len())
	assert.Contains(t, in, day(4))
	assert.Empty(t, visits.Range(day(4), day(4)))
}

func TestLoadStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := persistence.NewMemoryStore()

	empty, err := LoadStore(ctx, kv)
	require.NoError(t, err)
	assert.Zero(t, empty.Len())

	require.NoError(t, kv.Put(ctx, persistence.KeyVisits, []byte(visitsDoc)))
	visits, err := LoadStore(ctx, kv)
	require.Error(t, err)
	assert.Equal(t, 3, visits.Len())
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	visits, err := LoadFile(filepath.Join(t.TempDir(), "visits.json"))
	require.NoError(t, err)
	assert.Zero(t, visits.Len())
}

func TestBookReloadKeepsOldVisitsOnGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "visits.json")
	require.NoError(t, os.WriteFile(path, []byte(visitsDoc), 0o600))

	book := NewBook(nil)
	require.NoError(t, book.ReloadFile(context.Background(), path, nil))
	assert.Equal(t, 3, book.Len())

	require.NoError(t, os.WriteFile(path, []byte("<html>"), 0o600))
	require.Error(t, book.ReloadFile(context.Background(), path, nil))
	assert.Equal(t, 3, book.Len())
}
