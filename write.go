package rowmap

import (
	"context"
	"reflect"

	"github.com/roach88/rowmap/internal/ormerr"
	"github.com/roach88/rowmap/internal/queryir"
	"github.com/roach88/rowmap/internal/querysql"
)

// SaveValues inserts one row from values given in schema order. The number
// of values must match the number of columns.
func (m *Mapper) SaveValues(ctx context.Context, obj any, values ...any) error {
	return m.saveValues(ctx, obj, queryir.KindInsert, values)
}

// SaveIgnoreValues is SaveValues that skips the row on a unique or primary
// key conflict.
func (m *Mapper) SaveIgnoreValues(ctx context.Context, obj any, values ...any) error {
	return m.saveValues(ctx, obj, queryir.KindInsertIgnore, values)
}

func (m *Mapper) saveValues(ctx context.Context, obj any, kind queryir.Kind, values []any) error {
	b, err := m.bind(ctx, obj)
	if err != nil {
		return err
	}
	columns := b.mapping.Schema.Names()
	if len(values) != len(columns) {
		return ormerr.Configuration(b.table(), "%d values for %d columns", len(values), len(columns))
	}
	return m.insert(ctx, b, kind, columns, values)
}

// Save inserts obj. A unique or primary key conflict is an execution error.
func (m *Mapper) Save(ctx context.Context, obj any) error {
	return m.save(ctx, obj, queryir.KindInsert)
}

// SaveIgnore inserts obj unless a row with the same unique or primary key
// exists, in which case the table is unchanged.
func (m *Mapper) SaveIgnore(ctx context.Context, obj any) error {
	return m.save(ctx, obj, queryir.KindInsertIgnore)
}

// SaveReplace inserts obj, replacing any row with the same unique or primary
// key.
func (m *Mapper) SaveReplace(ctx context.Context, obj any) error {
	return m.save(ctx, obj, queryir.KindInsertReplace)
}

func (m *Mapper) save(ctx context.Context, obj any, kind queryir.Kind) error {
	b, err := m.bind(ctx, obj)
	if err != nil {
		return err
	}
	columns, stored, err := b.mapping.Extract(reflect.ValueOf(obj))
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		return ormerr.Configuration(b.table(), "%T has no fields bound to columns", obj)
	}
	values := make([]any, len(stored))
	for i, v := range stored {
		values[i] = v
	}
	return m.insert(ctx, b, kind, columns, values)
}

func (m *Mapper) insert(ctx context.Context, b *binding, kind queryir.Kind, columns []string, values []any) error {
	if err := m.ensure(ctx, b); err != nil {
		return err
	}
	sql, args, err := compile(queryir.Statement{Kind: kind, Table: b.table(), Columns: columns, Values: values})
	if err != nil {
		return err
	}
	_, err = m.exec(ctx, b, kind.String(), sql, args)
	return err
}

// Delete removes the rows of obj's table matching where. A nil where deletes
// every row.
func (m *Mapper) Delete(ctx context.Context, obj any, where Predicate) error {
	b, err := m.bind(ctx, obj)
	if err != nil {
		return err
	}
	if err := m.ensure(ctx, b); err != nil {
		return err
	}
	sql, args, err := compile(queryir.Statement{Kind: queryir.KindDelete, Table: b.table(), Where: where})
	if err != nil {
		return err
	}
	_, err = m.exec(ctx, b, "delete", sql, args)
	return err
}

// DeleteSQL runs a complete trusted DELETE statement against obj's database.
func (m *Mapper) DeleteSQL(ctx context.Context, obj any, stmt Trusted) error {
	return m.execTrusted(ctx, obj, "delete sql", stmt)
}

// Update sets columns on the rows matching where. A nil where updates every
// row.
func (m *Mapper) Update(ctx context.Context, obj any, set []Assignment, where Predicate) error {
	return m.update(ctx, obj, queryir.Statement{Kind: queryir.KindUpdate, Set: set, Where: where})
}

// UpdateClause is Update with a trusted SET list, e.g.
// Raw("plays = plays + ?", 1).
func (m *Mapper) UpdateClause(ctx context.Context, obj any, set Trusted, where Predicate) error {
	return m.update(ctx, obj, queryir.Statement{Kind: queryir.KindUpdate, SetSQL: &set, Where: where})
}

func (m *Mapper) update(ctx context.Context, obj any, st queryir.Statement) error {
	b, err := m.bind(ctx, obj)
	if err != nil {
		return err
	}
	if err := m.ensure(ctx, b); err != nil {
		return err
	}
	st.Table = b.table()
	sql, args, err := compile(st)
	if err != nil {
		return err
	}
	_, err = m.exec(ctx, b, "update", sql, args)
	return err
}

// UpdateSQL runs a complete trusted UPDATE statement against obj's database.
func (m *Mapper) UpdateSQL(ctx context.Context, obj any, stmt Trusted) error {
	return m.execTrusted(ctx, obj, "update sql", stmt)
}

func (m *Mapper) execTrusted(ctx context.Context, obj any, op string, stmt Trusted) error {
	b, err := m.bind(ctx, obj)
	if err != nil {
		return err
	}
	args, err := trustedArgs(b.table(), stmt)
	if err != nil {
		return err
	}
	if err := m.ensure(ctx, b); err != nil {
		return err
	}
	_, err = m.exec(ctx, b, op, stmt.SQL, args)
	return err
}

// compile renders a statement, classifying failures that are not already
// mapping errors as configuration errors.
func compile(st queryir.Statement) (string, []any, error) {
	sql, args, err := querysql.Compile(st)
	if err != nil {
		if ormerr.CodeOf(err) != "" {
			return "", nil, err
		}
		e := ormerr.Configuration(st.Table, "invalid %s", st.Kind)
		e.Err = err
		return "", nil, e
	}
	return sql, args, nil
}

// trustedArgs checks a full trusted statement and coerces its arguments.
func trustedArgs(table string, stmt Trusted) ([]any, error) {
	if stmt.SQL == "" {
		return nil, ormerr.Configuration(table, "trusted statement is empty")
	}
	if n := queryir.CountPlaceholders(stmt.SQL); n != len(stmt.Args) {
		return nil, ormerr.Configuration(table, "trusted statement has %d placeholders but %d args", n, len(stmt.Args))
	}
	return querysql.Params(stmt.Args)
}
