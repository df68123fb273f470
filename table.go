package rowmap

import (
	"context"
	"reflect"
	"strings"

	"github.com/roach88/rowmap/internal/capability"
	"github.com/roach88/rowmap/internal/introspect"
	"github.com/roach88/rowmap/internal/ir"
	"github.com/roach88/rowmap/internal/migrate"
	"github.com/roach88/rowmap/internal/ormerr"
	"github.com/roach88/rowmap/internal/querysql"
)

// binding is everything one operation needs about an object's type.
type binding struct {
	desc    capability.Descriptor
	mapping *introspect.Mapping
	queue   Queue
}

func (b *binding) table() string { return b.desc.TableName }

func (b *binding) key() string { return tableKey(b.desc.DatabaseName, b.desc.TableName) }

// bind describes obj, resolves its mapping and opens its database queue.
func (m *Mapper) bind(ctx context.Context, obj any) (*binding, error) {
	if obj == nil {
		return nil, ormerr.Configuration("", "object is nil")
	}
	if rv := reflect.ValueOf(obj); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, ormerr.Configuration("", "%T is a nil pointer", obj)
	}

	d, err := capability.Describe(obj)
	if err != nil {
		return nil, err
	}
	mapping, err := m.resolver.Resolve(reflect.TypeOf(obj), d)
	if err != nil {
		return nil, err
	}
	q, err := m.sessions.Queue(ctx, d.DatabaseName)
	if err != nil {
		return nil, ormerr.Execution(d.TableName, "open "+d.DatabaseName, err)
	}
	return &binding{desc: d, mapping: mapping, queue: q}, nil
}

// ensure creates or migrates the table once per mapper and mapping.
// Concurrent first uses wait for one reconciliation instead of racing it.
func (m *Mapper) ensure(ctx context.Context, b *binding) error {
	if m.isEnsured(b.key(), b.mapping) {
		return nil
	}
	l := m.tableLock(b.key())
	l.Lock()
	defer l.Unlock()
	if m.isEnsured(b.key(), b.mapping) {
		return nil
	}
	return m.reconcileLocked(ctx, b)
}

// reconcile creates or migrates the table unconditionally.
func (m *Mapper) reconcile(ctx context.Context, b *binding) error {
	l := m.tableLock(b.key())
	l.Lock()
	defer l.Unlock()
	return m.reconcileLocked(ctx, b)
}

// reconcileLocked must be called with the table lock held.
func (m *Mapper) reconcileLocked(ctx context.Context, b *binding) error {
	res, err := migrate.Reconcile(ctx, b.queue, b.table(), b.mapping.Schema, b.mapping.Constraints)
	if err != nil {
		m.logger.Error("table reconcile failed", "table", b.table(), "database", b.desc.DatabaseName, "error", err)
		return err
	}
	switch {
	case res.Created:
		m.logger.Info("table created", "table", b.table(), "database", b.desc.DatabaseName)
	case len(res.Added) > 0:
		m.logger.Info("columns added", "table", b.table(), "columns", res.Added)
	}
	if len(b.mapping.Skipped) > 0 && res.Created {
		m.logger.Debug("fields without a storage class skipped", "table", b.table(), "fields", b.mapping.Skipped)
	}
	m.setEnsured(b.key(), b.mapping)
	return nil
}

func (m *Mapper) exec(ctx context.Context, b *binding, op, sql string, args []any) (int64, error) {
	m.logger.Debug("exec", "table", b.table(), "op", op, "sql", sql)
	n, err := b.queue.Exec(ctx, sql, args...)
	if err != nil {
		m.logger.Error("execution failed", "table", b.table(), "op", op, "error", err)
		return 0, ormerr.Execution(b.table(), op, err)
	}
	return n, nil
}

func (m *Mapper) query(ctx context.Context, b *binding, op, sql string, args []any) ([]ir.Row, error) {
	m.logger.Debug("query", "table", b.table(), "op", op, "sql", sql)
	rows, err := b.queue.Query(ctx, sql, args...)
	if err != nil {
		m.logger.Error("execution failed", "table", b.table(), "op", op, "error", err)
		return nil, ormerr.Execution(b.table(), op, err)
	}
	return rows, nil
}

// TableExists reports whether obj's table exists.
func (m *Mapper) TableExists(ctx context.Context, obj any) (bool, error) {
	b, err := m.bind(ctx, obj)
	if err != nil {
		return false, err
	}
	sql, args := querysql.TableExists(b.table())
	rows, err := m.query(ctx, b, "table exists", sql, args)
	if err != nil {
		return false, err
	}
	return countOf(rows) > 0, nil
}

// CreateTable creates obj's table, or adds the columns the live table is
// missing. Existing columns are never dropped or changed.
func (m *Mapper) CreateTable(ctx context.Context, obj any) error {
	b, err := m.bind(ctx, obj)
	if err != nil {
		return err
	}
	return m.reconcile(ctx, b)
}

// DropTable drops obj's table if it exists.
func (m *Mapper) DropTable(ctx context.Context, obj any) error {
	b, err := m.bind(ctx, obj)
	if err != nil {
		return err
	}
	if _, err := m.exec(ctx, b, "drop table", querysql.DropTable(b.table()), nil); err != nil {
		return err
	}
	m.forget(b.key())
	return nil
}

// RenameTable renames obj's table to newName. The type keeps its own table
// name, so its next use creates a fresh table.
func (m *Mapper) RenameTable(ctx context.Context, obj any, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ormerr.Configuration("", "new table name is empty")
	}
	b, err := m.bind(ctx, obj)
	if err != nil {
		return err
	}
	if _, err := m.exec(ctx, b, "rename table", querysql.RenameTable(b.table(), newName), nil); err != nil {
		return err
	}
	m.forget(b.key())
	m.forget(tableKey(b.desc.DatabaseName, newName))
	return nil
}

// countOf reads a single COUNT(*) result.
func countOf(rows []ir.Row) int64 {
	if len(rows) == 0 || rows[0].Len() == 0 {
		return 0
	}
	if n, ok := rows[0].Values[0].(ir.Int); ok {
		return int64(n)
	}
	return 0
}
