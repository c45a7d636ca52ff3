// Package sqlite stores calendar documents in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/crumb-calendar/internal/persistence"
)

// Storage implements persistence.KeyValueStore on a single kv table.
type Storage struct {
	pool   *ConnectionPool
	retry  RetryConfig
	logger *slog.Logger
	now    func() time.Time
}

var _ persistence.KeyValueStore = (*Storage)(nil)

// Open connects to the database described by cfg and applies the schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &Storage{
		pool:   pool,
		retry:  DefaultRetryConfig(),
		logger: logger.With("component", "sqlite"),
		now:    time.Now,
	}
	if err := s.Migrate(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Get returns the document stored under key.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.DB().QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get %q: %w", key, err)
	}
	return value, nil
}

// Put replaces the document stored under key.
func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	err := withRetry(ctx, s.retry, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
				 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				key, value, s.now().UTC().Format(time.RFC3339Nano))
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("%w: sqlite put %q: %v", persistence.ErrWriteFailed, key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	err := withRetry(ctx, s.retry, func() error {
		_, err := s.pool.DB().ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: sqlite delete %q: %v", persistence.ErrWriteFailed, key, err)
	}
	return nil
}

// Keys lists stored keys in ascending order.
func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.pool.DB().QueryContext(ctx, `SELECT key FROM kv ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
