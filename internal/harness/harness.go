package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/rowmap/internal/logging"
	"github.com/roach88/rowmap/internal/migrate"
	"github.com/roach88/rowmap/internal/ormerr"
	"github.com/roach88/rowmap/internal/querysql"
	"github.com/roach88/rowmap/internal/schemaspec"
	"github.com/roach88/rowmap/internal/store"
)

// Harness executes scenario steps against one store.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a scenario in a fresh in-memory database and returns the
// result. Step failures and failed assertions are reported in the result;
// the error is reserved for scenarios that cannot run at all, such as an
// unreadable declaration file.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	logger := logging.Discard()
	st, err := store.Open(":memory:", store.Options{
		BusyTimeout: time.Second,
		ForeignKeys: true,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{store: st, logger: logger}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	actx := &AssertionContext{Queue: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	switch step.Kind() {
	case StepMigrate:
		return h.executeMigrate(ctx, index, step, result)
	case StepExec:
		params, err := querysql.Params(step.Args)
		if err != nil {
			return err
		}
		n, err := h.store.Exec(ctx, step.Exec, params...)
		event := TraceEvent{Type: StepExec, SQL: step.Exec, Args: step.Args, Affected: n}
		if err != nil {
			err = ormerr.Execution("", "exec", err)
			event.Error = string(ormerr.CodeOf(err))
		}
		result.record(event)
		checkOutcome(result, index, step, err, int(n))
	case StepQuery:
		params, err := querysql.Params(step.Args)
		if err != nil {
			return err
		}
		rows, err := h.store.Query(ctx, step.Query, params...)
		event := TraceEvent{Type: StepQuery, SQL: step.Query, Args: step.Args, Rows: rows}
		if err != nil {
			err = ormerr.Execution("", "query", err)
			event.Error = string(ormerr.CodeOf(err))
		}
		result.record(event)
		checkOutcome(result, index, step, err, len(rows))
	}
	return nil
}

// executeMigrate reconciles every declared table in order, stopping at the
// first failure as the migrate command does.
func (h *Harness) executeMigrate(ctx context.Context, index int, step Step, result *Result) error {
	tables, err := schemaspec.Load(step.Migrate)
	if err != nil {
		return err
	}

	for _, t := range tables {
		res, err := migrate.Reconcile(ctx, h.store, t.Name, t.Columns, t.Constraints)
		event := TraceEvent{Type: StepMigrate, Table: t.Name, Statements: res.Statements}
		if err != nil {
			event.Error = string(ormerr.CodeOf(err))
			h.logger.Debug("scenario migration failed", "table", t.Name, "error", err)
		}
		result.record(event)
		if err != nil {
			checkOutcome(result, index, step, err, 0)
			return nil
		}
	}
	checkOutcome(result, index, step, nil, 0)
	return nil
}

// checkOutcome compares a step's error and row count with its Expect.
func checkOutcome(result *Result, index int, step Step, err error, rows int) {
	want := step.Expect
	if want == nil {
		want = &Expect{}
	}

	switch {
	case want.Error != "" && err == nil:
		result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, got success", index, step.Kind(), want.Error))
		return
	case want.Error != "":
		if got := string(ormerr.CodeOf(err)); got != want.Error {
			result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, got %s: %v", index, step.Kind(), want.Error, got, err))
		}
		return
	case err != nil:
		result.AddError(fmt.Sprintf("steps[%d] %s: unexpected error: %v", index, step.Kind(), err))
		return
	}

	if want.Rows != nil && *want.Rows != rows {
		result.AddError(fmt.Sprintf("steps[%d] %s: expected %d rows, got %d", index, step.Kind(), *want.Rows, rows))
	}
}
