package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/example/crumb-calendar/internal/application"
	"github.com/example/crumb-calendar/internal/config"
	"github.com/example/crumb-calendar/internal/eventstore"
	"github.com/example/crumb-calendar/internal/grid"
	"github.com/example/crumb-calendar/internal/itinerary"
	"github.com/example/crumb-calendar/internal/logging"
	"github.com/example/crumb-calendar/internal/persistence"
	"github.com/example/crumb-calendar/internal/persistence/file"
	"github.com/example/crumb-calendar/internal/persistence/sqlite"
	"github.com/example/crumb-calendar/internal/recurrence"
)

// app holds the flags shared by every command and the services opened from
// them.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	driver     string
	dataDir    string

	now   func() time.Time
	newID func() string

	cfg       *config.Config
	logger    *slog.Logger
	kv        persistence.KeyValueStore
	store     *eventstore.Store
	engine    *recurrence.Engine
	svc       *application.EventService
	projector *grid.Projector
	book      *itinerary.Book

	closers []func() error
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:    out,
		errOut: errOut,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// open loads the configuration and wires storage, the event service and the
// itinerary.
func (a *app) open(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.driver != "" {
		cfg.Storage.Driver = a.driver
	}
	if a.dataDir != "" {
		cfg.Storage.DataDir = a.dataDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.openLogger(); err != nil {
		return err
	}
	ctx = logging.ContextWithLogger(ctx, a.logger)

	kv, err := a.openStorage(ctx)
	if err != nil {
		return err
	}
	a.kv = kv
	a.closers = append(a.closers, kv.Close)

	store, err := eventstore.Open(ctx, kv, a.logger)
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}
	a.store = store

	slots, err := cfg.SlotConfig()
	if err != nil {
		return err
	}
	a.engine = recurrence.NewEngine()
	a.projector, err = grid.NewProjector(a.engine, slots)
	if err != nil {
		return err
	}
	a.svc = application.NewEventServiceWithLogger(store, a.engine, a.newID, a.now, a.logger)

	visits, err := a.loadItinerary(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "itinerary partially loaded", "error", err)
	}
	a.book = itinerary.NewBook(visits)
	return nil
}

func (a *app) openLogger() error {
	path := a.cfg.LogPath()
	f, err := logging.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	a.closers = append(a.closers, f.Close)

	logger, err := logging.New(logging.Options{Level: a.cfg.Log.Level, Format: a.cfg.Log.Format, Writer: f})
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *app) openStorage(ctx context.Context) (persistence.KeyValueStore, error) {
	switch a.cfg.Storage.Driver {
	case config.DriverMemory:
		return persistence.NewMemoryStore(), nil
	case config.DriverFile:
		return file.NewStore(a.cfg.Storage.DataDir)
	default:
		path := a.cfg.SQLitePath()
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		return sqlite.Open(ctx, sqlite.DefaultConfig(path), a.logger)
	}
}

func (a *app) loadItinerary(ctx context.Context) (itinerary.ByDate, error) {
	if a.cfg.Itinerary.File != "" {
		return itinerary.LoadFile(a.cfg.Itinerary.File)
	}
	return itinerary.LoadStore(ctx, a.kv)
}

// close flushes pending writes and releases resources in reverse order.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.store != nil && a.store.Dirty() {
		if err := a.store.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("unsaved changes could not be written: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
