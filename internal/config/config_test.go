package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rowmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.Database.Dir)
	assert.Equal(t, "user_db.sqlite", cfg.Database.Name)
	assert.True(t, cfg.Database.WALMode)
	assert.True(t, cfg.Database.ForeignKeys)
	assert.Equal(t, 5*time.Second, cfg.GetBusyTimeout())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  dir: /var/lib/rowmap
  name: music.sqlite
  wal_mode: false
  busy_timeout: 2
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/rowmap", cfg.Database.Dir)
	assert.Equal(t, "music.sqlite", cfg.Database.Name)
	assert.False(t, cfg.Database.WALMode)
	assert.True(t, cfg.Database.ForeignKeys, "unset keys keep their default")
	assert.Equal(t, 2*time.Second, cfg.GetBusyTimeout())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "database:\n  dir: /from/file\n")
	t.Setenv("ROWMAP_DATABASE_DIR", "/from/env")
	t.Setenv("ROWMAP_DATABASE_NAME", "env.sqlite")
	t.Setenv("ROWMAP_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.Database.Dir)
	assert.Equal(t, "env.sqlite", cfg.Database.Name)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading config file")

	_, err = Load(writeConfig(t, "database: [unclosed"))
	assert.ErrorContains(t, err, "parsing config file")

	_, err = Load(writeConfig(t, "logging:\n  level: loud\n"))
	assert.ErrorContains(t, err, "logging.level")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"empty dir", func(c *Config) { c.Database.Dir = "" }, "database.dir is required"},
		{"empty name", func(c *Config) { c.Database.Name = "" }, "database.name is required"},
		{"path name", func(c *Config) { c.Database.Name = "a/b.sqlite" }, "must be a file name"},
		{"negative timeout", func(c *Config) { c.Database.BusyTimeout = -1 }, "busy_timeout"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, Default().Validate())
}
