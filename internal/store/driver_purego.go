//go:build purego_sqlite

// Pure Go SQLite driver using modernc.org/sqlite.
// Build with: go build -tags purego_sqlite
package store

import (
	_ "modernc.org/sqlite"
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)
