package slot

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// createTableSQL is shared by the pgx and database/sql drivers.
const createTableSQL = `CREATE TABLE IF NOT EXISTS tcup_slots (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const (
	selectSlotSQL = `SELECT value FROM tcup_slots WHERE key = $1`
	upsertSlotSQL = `INSERT INTO tcup_slots (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	deleteSlotSQL = `DELETE FROM tcup_slots WHERE key = $1`
)

// PostgresStore is a [Store] backed by a PostgreSQL table through pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and ensures the slot table exists.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("slot: connect postgres: %w", err)
	}

	st, err := NewPostgresStoreFromPool(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return st, nil
}

// NewPostgresStoreFromPool wraps an existing pool. The pool is closed by
// [PostgresStore.Close].
func NewPostgresStoreFromPool(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("slot: create table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Get returns the value stored under key.
func (p *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, selectSlotSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("slot: get %q: %w", key, err)
	}
	return value, nil
}

// Set upserts value under key.
func (p *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := p.pool.Exec(ctx, upsertSlotSQL, key, value); err != nil {
		return fmt.Errorf("slot: set %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, deleteSlotSQL, key); err != nil {
		return fmt.Errorf("slot: delete %q: %w", key, err)
	}
	return nil
}

// Close closes the connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
