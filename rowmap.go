// Package rowmap maps Go structs to SQLite tables.
//
// A type opts in by implementing Persistable (a TableName method). Its
// exported fields become columns in declaration order, or it supplies an
// explicit column description instead. The first operation on a table creates
// it, or adds any columns the type declares that the live table lacks.
//
// Values always travel as bound parameters. Trusted fragments built with Raw
// are the one place caller SQL reaches the statement text, and are not
// escaped.
//
//	m := rowmap.New(registry, rowmap.WithLogger(logger))
//	err := m.SaveIgnore(ctx, &Song{ID: 1, Title: "A", Rating: 4.5})
//	top, err := rowmap.Select[*Song](ctx, m, rowmap.Query{OrderKey: "rating", Descending: true, Limit: 1})
package rowmap

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/roach88/rowmap/internal/capability"
	"github.com/roach88/rowmap/internal/introspect"
	"github.com/roach88/rowmap/internal/ir"
	"github.com/roach88/rowmap/internal/ormerr"
	"github.com/roach88/rowmap/internal/queryir"
	"github.com/roach88/rowmap/internal/store"
)

type (
	// Queue executes SQL against one database, serialized.
	Queue = store.Queue

	// Row is one result row.
	Row = ir.Row

	Persistable      = capability.Persistable
	DatabaseNamer    = capability.DatabaseNamer
	ColumnDescriber  = capability.ColumnDescriber
	IgnoreKeyer      = capability.IgnoreKeyer
	TableConstrainer = capability.TableConstrainer

	Predicate  = queryir.Predicate
	Compare    = queryir.Compare
	In         = queryir.In
	IsNull     = queryir.IsNull
	And        = queryir.And
	Or         = queryir.Or
	Not        = queryir.Not
	Trusted    = queryir.Trusted
	Assignment = queryir.Assignment

	Error = ormerr.Error
)

// Predicate constructors.
var (
	Eq    = queryir.Eq
	Ne    = queryir.Ne
	Lt    = queryir.Lt
	Le    = queryir.Le
	Gt    = queryir.Gt
	Ge    = queryir.Ge
	Like  = queryir.Like
	Raw   = queryir.Raw
	AllOf = queryir.AllOf
	AnyOf = queryir.AnyOf
)

// Error classification.
var (
	IsConfiguration    = ormerr.IsConfiguration
	IsUnsupportedType  = ormerr.IsUnsupportedType
	IsSchemaMismatch   = ormerr.IsSchemaMismatch
	IsExecution        = ormerr.IsExecution
	IsMigrationPartial = ormerr.IsMigrationPartial
)

// Sessions resolves a database name to its queue.
// *store.Registry implements it.
type Sessions interface {
	Queue(ctx context.Context, database string) (Queue, error)
}

// Mapper runs mapping operations against the queues of a Sessions source.
//
// A Mapper is safe for concurrent use. Statement execution is serialized by
// the queue.
type Mapper struct {
	sessions Sessions
	resolver *introspect.Resolver
	logger   *slog.Logger

	// ensured records, per database and table, the mapping last reconciled
	// against it. locks serialize reconciliation per table.
	mu      sync.Mutex
	ensured map[string]*introspect.Mapping
	locks   map[string]*sync.Mutex
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Mapper) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithResolver sets the schema resolver. Default: the process-wide resolver,
// so mappings are computed once per type across mappers.
func WithResolver(r *introspect.Resolver) Option {
	return func(m *Mapper) {
		if r != nil {
			m.resolver = r
		}
	}
}

// New returns a Mapper over sessions.
func New(sessions Sessions, opts ...Option) *Mapper {
	m := &Mapper{
		sessions: sessions,
		resolver: introspect.Default(),
		logger:   slog.Default(),
		ensured:  make(map[string]*introspect.Mapping),
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithTransaction runs fn with a Mapper whose operations on database share
// one transaction. fn's error, or a panic, rolls everything back. Operations
// on other databases run outside the transaction.
func (m *Mapper) WithTransaction(ctx context.Context, database string, fn func(tx *Mapper) error) error {
	q, err := m.sessions.Queue(ctx, database)
	if err != nil {
		return ormerr.Execution("", "open "+database, err)
	}
	return q.WithTransaction(ctx, func(tq Queue) error {
		tx := &Mapper{
			sessions: txSessions{Sessions: m.sessions, database: database, queue: tq},
			resolver: m.resolver,
			logger:   m.logger,
			ensured:  make(map[string]*introspect.Mapping),
			locks:    make(map[string]*sync.Mutex),
		}
		return fn(tx)
	})
}

// txSessions pins one database to a transaction queue.
type txSessions struct {
	Sessions
	database string
	queue    Queue
}

func (s txSessions) Queue(ctx context.Context, database string) (Queue, error) {
	if database == s.database {
		return s.queue, nil
	}
	return s.Sessions.Queue(ctx, database)
}

func tableKey(database, table string) string {
	return strings.ToLower(database + "\x00" + table)
}

func (m *Mapper) isEnsured(key string, mapping *introspect.Mapping) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensured[key] == mapping
}

func (m *Mapper) setEnsured(key string, mapping *introspect.Mapping) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensured[key] = mapping
}

// tableLock returns the mutex held while a table is reconciled.
func (m *Mapper) tableLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}

func (m *Mapper) forget(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ensured, key)
}
