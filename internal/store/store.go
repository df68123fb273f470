package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// connectionTimeout bounds the ping that verifies a freshly opened database.
const connectionTimeout = 5 * time.Second

// Options configure how a database file is opened.
type Options struct {
	// WALMode enables write-ahead logging.
	WALMode bool

	// BusyTimeout is how long SQLite waits on a locked database.
	BusyTimeout time.Duration

	// ForeignKeys enables foreign key enforcement.
	ForeignKeys bool

	// Logger receives debug output. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns WAL mode, a 5 second busy timeout and foreign keys
// on.
func DefaultOptions() Options {
	return Options{
		WALMode:     true,
		BusyTimeout: 5 * time.Second,
		ForeignKeys: true,
	}
}

// Store is a database queue over one SQLite file.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open creates or opens a SQLite database at the given path and applies the
// pragmas in opts. The parent directory must exist.
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts Options) (*Store, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one writer at a time; one connection also keeps
	// per-connection pragmas in force.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := applyPragmas(ctx, db, opts); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("database opened", "path", path, "driver", driverType)

	return &Store{db: db, path: path, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DriverName returns the registered database/sql driver name and the Go
// package that provides it.
func DriverName() (name, pkg string) {
	return driverName, driverPackage
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB, opts Options) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeout.Milliseconds()),
	}
	if opts.WALMode {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	if opts.ForeignKeys {
		pragmas = append(pragmas, "PRAGMA foreign_keys = ON")
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
