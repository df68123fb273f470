// Package paths resolves database names to files under one directory.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// dirPermissions is the permission mode for the database directory.
const dirPermissions = 0750

// Side files SQLite may leave next to a database.
var sideSuffixes = []string{"-wal", "-shm", "-journal"}

// Provider places database files in Dir.
type Provider struct {
	Dir string
}

// New returns a provider rooted at dir.
func New(dir string) *Provider {
	return &Provider{Dir: dir}
}

// ResolvePath returns the file path for a database name, creating the
// directory if needed. Names must be plain file names.
func (p *Provider) ResolvePath(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid database name %q", name)
	}
	if p.Dir == "" {
		return "", errors.New("database directory is not set")
	}
	if err := os.MkdirAll(p.Dir, dirPermissions); err != nil {
		return "", fmt.Errorf("create database directory: %w", err)
	}
	return filepath.Join(p.Dir, name), nil
}

// Delete removes a database file and its WAL, SHM and journal side files,
// then removes the containing directory if it is left empty. Missing files
// are not an error.
func (p *Provider) Delete(path string) error {
	for _, f := range append([]string{path}, sidePaths(path)...) {
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", f, err)
		}
	}

	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read database directory: %w", err)
	}
	if len(entries) == 0 {
		if err := os.Remove(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove database directory: %w", err)
		}
	}
	return nil
}

func sidePaths(path string) []string {
	out := make([]string, len(sideSuffixes))
	for i, s := range sideSuffixes {
		out[i] = path + s
	}
	return out
}
