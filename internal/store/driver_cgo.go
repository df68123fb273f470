//go:build !purego_sqlite

// CGO SQLite driver using mattn/go-sqlite3.
// This is the default. Requires CGO_ENABLED=1.
package store

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	driverName    = "sqlite3"
	driverType    = "cgo"
	driverPackage = "github.com/mattn/go-sqlite3"
)
