package slot

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by [Store.Get] when the key has never been written
// or was deleted.
var ErrNotFound = errors.New("slot: not found")

// Driver names accepted by [Open].
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSQL      = "sql"
)

// Store defines the interface for durable key-value slots.
//
// Store implementations must be safe for concurrent access. Writes replace
// the whole value of a key; concurrent writers to the same key follow
// last-writer-wins semantics.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// Open creates a [Store] for the named driver.
//
// The location is interpreted per driver: ignored for "memory", a file path
// for "file", and a PostgreSQL connection string for "postgres" and "sql".
func Open(ctx context.Context, driver, location string) (Store, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverFile:
		return NewFileStore(location)
	case DriverPostgres:
		return NewPostgresStore(ctx, location)
	case DriverSQL:
		return NewSQLStore(ctx, location)
	default:
		return nil, fmt.Errorf("slot: unknown driver %q", driver)
	}
}

// copyBytes returns a copy of b so callers never share a backing array with
// the store.
func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
