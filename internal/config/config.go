// Package config loads rowmap configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rowmap/internal/capability"
)

// Config is the complete rowmap configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	// Dir is the directory holding database files.
	Dir string `yaml:"dir"`

	// Name is the default database file name.
	Name string `yaml:"name"`

	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is in seconds.
	BusyTimeout int `yaml:"busy_timeout"`

	ForeignKeys bool `yaml:"foreign_keys"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	Output string `yaml:"output"` // stdout, stderr
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The loading order is:
//  1. Default values
//  2. YAML file values
//  3. Environment variables (ROWMAP_SECTION_KEY)
//
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with defaults filled in.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Dir:         "./data",
			Name:        capability.DefaultDatabaseName,
			WALMode:     true,
			BusyTimeout: 5,
			ForeignKeys: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ROWMAP_DATABASE_DIR"); v != "" {
		cfg.Database.Dir = v
	}
	if v := os.Getenv("ROWMAP_DATABASE_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("ROWMAP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Dir == "" {
		errs = append(errs, "database.dir is required")
	}
	if c.Database.Name == "" {
		errs = append(errs, "database.name is required")
	} else if strings.ContainsAny(c.Database.Name, `/\`) {
		errs = append(errs, "database.name must be a file name, not a path")
	}
	if c.Database.BusyTimeout < 0 {
		errs = append(errs, "database.busy_timeout must not be negative")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("logging.format %q is not json or text", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// GetBusyTimeout returns the busy timeout as a Duration.
func (c *Config) GetBusyTimeout() time.Duration {
	return time.Duration(c.Database.BusyTimeout) * time.Second
}
