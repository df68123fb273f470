package rowmap

import (
	"context"
	"reflect"

	"github.com/roach88/rowmap/internal/ir"
	"github.com/roach88/rowmap/internal/ormerr"
	"github.com/roach88/rowmap/internal/queryir"
)

// Query filters and orders a Select.
type Query struct {
	// Where filters rows. nil matches every row.
	Where Predicate

	// OrderKey sorts by a column. Empty leaves the order unspecified.
	OrderKey   string
	Descending bool

	// Limit caps the number of rows. Zero or less means no limit.
	Limit int
}

// Select returns the rows of T's table matching q, one fresh T per row.
// T is a persistable struct or a pointer to one. No matching rows is an empty,
// non-nil slice.
func Select[T any](ctx context.Context, m *Mapper, q Query) ([]T, error) {
	rt, b, err := bindType[T](ctx, m)
	if err != nil {
		return nil, err
	}
	if err := m.ensure(ctx, b); err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit < 0 {
		limit = 0
	}
	sql, args, err := compile(queryir.Statement{
		Kind:       queryir.KindSelect,
		Table:      b.table(),
		Where:      q.Where,
		OrderKey:   q.OrderKey,
		Descending: q.Descending,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	rows, err := m.query(ctx, b, "select", sql, args)
	if err != nil {
		return nil, err
	}
	return decodeRows(m, b, rt, rows)
}

// SelectAll returns every row of T's table.
func SelectAll[T any](ctx context.Context, m *Mapper) ([]T, error) {
	return Select[T](ctx, m, Query{})
}

// SelectSQL runs a complete trusted SELECT against T's database and maps the
// result columns onto T by name. Mapped columns the result lacks are logged
// and left at their zero value.
func SelectSQL[T any](ctx context.Context, m *Mapper, stmt Trusted) ([]T, error) {
	rt, b, err := bindType[T](ctx, m)
	if err != nil {
		return nil, err
	}
	args, err := trustedArgs(b.table(), stmt)
	if err != nil {
		return nil, err
	}
	if err := m.ensure(ctx, b); err != nil {
		return nil, err
	}
	rows, err := m.query(ctx, b, "select sql", stmt.SQL, args)
	if err != nil {
		return nil, err
	}
	return decodeRows(m, b, rt, rows)
}

// Count returns the number of rows of T's table matching where.
func Count[T any](ctx context.Context, m *Mapper, where Predicate) (int64, error) {
	_, b, err := bindType[T](ctx, m)
	if err != nil {
		return 0, err
	}
	if err := m.ensure(ctx, b); err != nil {
		return 0, err
	}
	sql, args, err := compile(queryir.Statement{Kind: queryir.KindCount, Table: b.table(), Where: where})
	if err != nil {
		return 0, err
	}
	rows, err := m.query(ctx, b, "count", sql, args)
	if err != nil {
		return 0, err
	}
	return countOf(rows), nil
}

// rowType allocates values of T, which is a struct or a pointer to one.
type rowType[T any] struct {
	elem    reflect.Type
	pointer bool
}

func rowTypeOf[T any]() (rowType[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	switch {
	case t.Kind() == reflect.Struct:
		return rowType[T]{elem: t}, nil
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		return rowType[T]{elem: t.Elem(), pointer: true}, nil
	}
	return rowType[T]{}, ormerr.Configuration("", "%s is not a struct or pointer to struct", t)
}

// alloc returns a pointer to a new zero struct.
func (r rowType[T]) alloc() reflect.Value {
	return reflect.New(r.elem)
}

// value returns the T held by ptr.
func (r rowType[T]) value(ptr reflect.Value) T {
	if r.pointer {
		return ptr.Interface().(T)
	}
	return ptr.Elem().Interface().(T)
}

func bindType[T any](ctx context.Context, m *Mapper) (rowType[T], *binding, error) {
	rt, err := rowTypeOf[T]()
	if err != nil {
		return rt, nil, err
	}
	b, err := m.bind(ctx, rt.value(rt.alloc()))
	if err != nil {
		return rt, nil, err
	}
	return rt, b, nil
}

// decodeRows builds one T per row. Missing mapped columns are a recoverable
// schema mismatch: logged, with the field left at its zero value.
func decodeRows[T any](m *Mapper, b *binding, rt rowType[T], rows []ir.Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	warned := false
	for _, row := range rows {
		ptr := rt.alloc()
		missing, err := b.mapping.Assign(ptr, row)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 && !warned {
			mismatch := ormerr.SchemaMismatch(b.table(), missing[0], "result has no column for %d mapped fields", len(missing))
			m.logger.Warn("schema mismatch", "table", b.table(), "missing", missing, "error", mismatch)
			warned = true
		}
		out = append(out, rt.value(ptr))
	}
	return out, nil
}
