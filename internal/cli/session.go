package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rowmap/internal/config"
	"github.com/roach88/rowmap/internal/logging"
	"github.com/roach88/rowmap/internal/paths"
	"github.com/roach88/rowmap/internal/store"
)

// session is the per-invocation state shared by commands.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	out      *OutputFormatter
	registry *store.Registry

	// database is the default database name for this invocation.
	database string
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// openSession loads configuration and prepares the store registry. Databases
// are opened lazily.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	out := newFormatter(opts, cmd)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, out.Fail(WrapExitError(ExitCommandError, ErrCodeConfig, "failed to load config", err))
	}

	// --db is either a bare file name under the configured directory or a
	// path, which then also picks the directory.
	if db := strings.TrimSpace(opts.Database); db != "" {
		if strings.ContainsAny(db, `/\`) {
			cfg.Database.Dir = filepath.Dir(db)
			db = filepath.Base(db)
		}
		cfg.Database.Name = db
	}

	logCfg := cfg.Logging
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	logger := logging.NewWithWriter(logCfg, cmd.ErrOrStderr())

	storeOpts := store.Options{
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.GetBusyTimeout(),
		ForeignKeys: cfg.Database.ForeignKeys,
		Logger:      logger,
	}

	out.VerboseLog("database directory: %s", cfg.Database.Dir)
	return &session{
		cfg:      cfg,
		logger:   logger,
		out:      out,
		registry: store.NewRegistry(paths.New(cfg.Database.Dir), storeOpts),
		database: cfg.Database.Name,
	}, nil
}

// queue opens database, or the session default when database is empty.
func (s *session) queue(ctx context.Context, database string) (store.Queue, string, error) {
	if database == "" {
		database = s.database
	}
	q, err := s.registry.Queue(ctx, database)
	if err != nil {
		return nil, database, WrapExitError(ExitCommandError, ErrCodeDatabase, "failed to open database "+database, err)
	}
	return q, database, nil
}

func (s *session) Close() error {
	return s.registry.Close()
}
