// Package store is the SQLite database queue behind the mapping layer.
//
// A Store owns one database file and serializes every statement through a
// single connection. Results come back as ir.Row values so callers never
// touch database/sql types.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes (optional)
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout: Wait for locks, 5 seconds by default
//   - foreign_keys=ON: Enforce referential integrity (optional)
//
// # Drivers
//
// The default build uses github.com/mattn/go-sqlite3 (cgo). Building with
// the purego_sqlite tag switches to modernc.org/sqlite:
//
//	go build -tags purego_sqlite ./...
//
// A Registry maps database names to open stores, one Store per file.
package store
