package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// registers the "postgres" database/sql driver
	_ "github.com/lib/pq"
)

// SQLStore is a [Store] backed by PostgreSQL through database/sql and lib/pq.
//
// It shares its table layout with [PostgresStore], so the two drivers can be
// swapped against the same database.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore opens a lib/pq connection and ensures the slot table exists.
func NewSQLStore(ctx context.Context, connString string) (*SQLStore, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("slot: open postgres: %w", err)
	}

	st, err := NewSQLStoreFromDB(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

// NewSQLStoreFromDB wraps an existing *sql.DB. The handle is closed by
// [SQLStore.Close].
func NewSQLStoreFromDB(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("slot: create table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Get returns the value stored under key.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, selectSlotSQL, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("slot: get %q: %w", key, err)
	}
	return value, nil
}

// Set upserts value under key.
func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertSlotSQL, key, value); err != nil {
		return fmt.Errorf("slot: set %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteSlotSQL, key); err != nil {
		return fmt.Errorf("slot: delete %q: %w", key, err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
