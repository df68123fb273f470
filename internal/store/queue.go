package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/rowmap/internal/ir"
)

// Queue executes SQL against one database.
type Queue interface {
	// Exec runs a statement and returns the number of rows affected.
	Exec(ctx context.Context, query string, args ...any) (int64, error)

	// Query runs a statement and returns every result row. The slice is
	// empty, not nil, when there are no rows.
	Query(ctx context.Context, query string, args ...any) ([]ir.Row, error)

	// WithTransaction runs fn inside a transaction. fn's error, or a panic,
	// rolls back; otherwise the transaction commits. Nested calls join the
	// outer transaction.
	WithTransaction(ctx context.Context, fn func(Queue) error) error
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Exec runs a statement and returns the number of rows affected.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execRows(ctx, s.db, query, args)
}

// Query runs a statement and returns every result row.
func (s *Store) Query(ctx context.Context, query string, args ...any) ([]ir.Row, error) {
	return queryRows(ctx, s.db, query, args)
}

// WithTransaction runs fn in a transaction on the store's connection.
func (s *Store) WithTransaction(ctx context.Context, fn func(Queue) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(&txQueue{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txQueue is the Queue handed to a transaction callback.
type txQueue struct {
	tx *sql.Tx
}

func (q *txQueue) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execRows(ctx, q.tx, query, args)
}

func (q *txQueue) Query(ctx context.Context, query string, args ...any) ([]ir.Row, error) {
	return queryRows(ctx, q.tx, query, args)
}

func (q *txQueue) WithTransaction(_ context.Context, fn func(Queue) error) error {
	return fn(q)
}

func execRows(ctx context.Context, db execer, query string, args []any) (int64, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func queryRows(ctx context.Context, db execer, query string, args []any) ([]ir.Row, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := []ir.Row{}
	for rows.Next() {
		raw := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		values := make([]ir.Value, len(columns))
		for i, v := range raw {
			values[i], err = ir.FromDriver(v)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", columns[i], err)
			}
		}
		out = append(out, ir.Row{Columns: columns, Values: values})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
