// Package slot provides the durable key-value slot storage used by tcup.
//
// A slot is a named value that is read and written as a whole. The Config
// Store keeps its entire collection in one slot, and session handling keeps
// one login flag slot per browser client. There is no schema versioning and
// no migration: a slot holds whatever bytes were last written to it.
//
// The main components are:
//
//   - [Store]: Interface implemented by every storage driver
//   - [MemoryStore]: Process-local map, used in tests and ephemeral setups
//   - [FileStore]: Single JSON file, written atomically on every change
//   - [PostgresStore]: One table accessed through a pgx connection pool
//   - [SQLStore]: The same table accessed through database/sql and lib/pq
//
// Use [Open] to construct a store from a driver name and location.
package slot
