// Package migrate reconciles a live SQLite table with a declared schema.
//
// Migration is additive only: missing tables are created and missing columns
// are appended with ALTER TABLE ... ADD COLUMN. Columns present in the live
// table but absent from the declaration are left alone, and nothing is ever
// dropped or retyped.
package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/rowmap/internal/ir"
	"github.com/roach88/rowmap/internal/ormerr"
	"github.com/roach88/rowmap/internal/querysql"
)

// Queue is the subset of the database queue the migrator needs.
type Queue interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	Query(ctx context.Context, sql string, args ...any) ([]ir.Row, error)
}

// Result describes what Reconcile did.
type Result struct {
	// Created is true when the table did not exist and was created.
	Created bool

	// Added lists columns appended with ALTER TABLE, in order.
	Added []string

	// Statements holds the SQL executed, in order.
	Statements []string
}

// Changed reports whether any statement was executed.
func (r Result) Changed() bool {
	return len(r.Statements) > 0
}

// Plan returns the declared columns missing from the live column list, in
// declared order. Names compare case-insensitively, as SQLite does.
//
// Plan is a pure function with no side effects.
func Plan(live []string, declared ir.Schema) []ir.Column {
	have := make(map[string]bool, len(live))
	for _, name := range live {
		have[strings.ToLower(name)] = true
	}

	var missing []ir.Column
	for _, c := range declared {
		if !have[strings.ToLower(c.Name)] {
			missing = append(missing, c)
		}
	}
	return missing
}

// Statements renders the SQL Reconcile would run given the live state.
// exists reports whether the table exists; live is its column list.
func Statements(table string, exists bool, live []string, declared ir.Schema, constraints []string) []string {
	if !exists {
		return []string{querysql.CreateTable(table, declared, constraints)}
	}
	var out []string
	for _, c := range Plan(live, declared) {
		out = append(out, querysql.AlterTableAddColumn(table, c))
	}
	return out
}

// Inspect reports whether table exists and its live column names.
func Inspect(ctx context.Context, q Queue, table string) (exists bool, columns []string, err error) {
	sql, args := querysql.TableExists(table)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return false, nil, ormerr.Execution(table, "check table exists", err)
	}
	if len(rows) == 0 || rows[0].Len() == 0 {
		return false, nil, nil
	}
	if n, ok := rows[0].Values[0].(ir.Int); !ok || n == 0 {
		return false, nil, nil
	}

	columns, err = LiveColumns(ctx, q, table)
	if err != nil {
		return false, nil, err
	}
	return true, columns, nil
}

// LiveColumns returns the column names of table from PRAGMA table_info, in
// table order.
func LiveColumns(ctx context.Context, q Queue, table string) ([]string, error) {
	rows, err := q.Query(ctx, querysql.TableInfo(table))
	if err != nil {
		return nil, ormerr.Execution(table, "read table info", err)
	}

	columns := make([]string, 0, len(rows))
	for _, row := range rows {
		v, ok := row.Get("name")
		if !ok {
			return nil, ormerr.SchemaMismatch(table, "name", "table_info row has no name column")
		}
		name, ok := v.(ir.Text)
		if !ok {
			return nil, ormerr.SchemaMismatch(table, "name", "table_info name is %T", v)
		}
		columns = append(columns, string(name))
	}
	return columns, nil
}

// Reconcile brings table in line with the declared schema.
//
// A missing table is created with its constraints. Otherwise each missing
// column is added with its own ALTER TABLE, sequentially. The first failing
// ALTER stops the run with a MIGRATION_PARTIAL_FAILURE error listing the
// columns already added; those are not rolled back.
//
// Running Reconcile again after success executes nothing.
func Reconcile(ctx context.Context, q Queue, table string, declared ir.Schema, constraints []string) (Result, error) {
	var res Result

	exists, live, err := Inspect(ctx, q, table)
	if err != nil {
		return res, err
	}

	if !exists {
		sql := querysql.CreateTable(table, declared, constraints)
		if _, err := q.Exec(ctx, sql); err != nil {
			return res, ormerr.Execution(table, "create table", err)
		}
		res.Created = true
		res.Statements = append(res.Statements, sql)
		return res, nil
	}

	for _, c := range Plan(live, declared) {
		sql := querysql.AlterTableAddColumn(table, c)
		if _, err := q.Exec(ctx, sql); err != nil {
			return res, ormerr.MigrationPartial(table, c.Name, append([]string(nil), res.Added...),
				fmt.Errorf("%s: %w", sql, err))
		}
		res.Added = append(res.Added, c.Name)
		res.Statements = append(res.Statements, sql)
	}
	return res, nil
}
