package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/rowmap/internal/paths"
)

// Registry opens one Store per database name on demand and keeps it open
// until Close.
type Registry struct {
	mu     sync.Mutex
	paths  *paths.Provider
	opts   Options
	stores map[string]*Store
}

// NewRegistry returns a registry placing database files with p.
func NewRegistry(p *paths.Provider, opts Options) *Registry {
	return &Registry{
		paths:  p,
		opts:   opts,
		stores: make(map[string]*Store),
	}
}

// Queue returns the queue for a database name, opening it on first use.
func (r *Registry) Queue(_ context.Context, database string) (Queue, error) {
	return r.Store(database)
}

// Store returns the store for a database name, opening it on first use.
func (r *Registry) Store(database string) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[database]; ok {
		return s, nil
	}

	path, err := r.paths.ResolvePath(database)
	if err != nil {
		return nil, err
	}
	s, err := Open(path, r.opts)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", database, err)
	}
	r.stores[database] = s
	return s, nil
}

// Remove closes the named database, if open, and deletes its files.
func (r *Registry) Remove(database string) error {
	path, err := r.paths.ResolvePath(database)
	if err != nil {
		return err
	}

	r.mu.Lock()
	s, ok := r.stores[database]
	delete(r.stores, database)
	r.mu.Unlock()

	if ok {
		if err := s.Close(); err != nil {
			return err
		}
	}
	return r.paths.Delete(path)
}

// Close closes every open store.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, s := range r.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		delete(r.stores, name)
	}
	return errors.Join(errs...)
}
