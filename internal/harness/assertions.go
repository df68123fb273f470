package harness

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/rowmap/internal/coerce"
	"github.com/roach88/rowmap/internal/ir"
	"github.com/roach88/rowmap/internal/migrate"
	"github.com/roach88/rowmap/internal/queryir"
	"github.com/roach88/rowmap/internal/querysql"
	"github.com/roach88/rowmap/internal/store"
)

// validIdentifier matches table names an assertion may name.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionContext gives assertions access to the scenario database.
type AssertionContext struct {
	Queue store.Queue
	Ctx   context.Context
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		switch {
		case event.Type == StepMigrate:
			fmt.Fprintf(&buf, "  [%d] migrate %s %v\n", event.Seq, event.Table, event.Statements)
		default:
			fmt.Fprintf(&buf, "  [%d] %s %s %v\n", event.Seq, event.Type, event.SQL, event.Args)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertColumns:
			err = assertColumns(actx, a, result.Trace)
		case AssertRowCount:
			err = assertRowCount(actx, a, result.Trace)
		case AssertFinalState:
			err = assertFinalState(actx, a, result.Trace)
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func assertColumns(actx *AssertionContext, a Assertion, trace []TraceEvent) error {
	live, err := migrate.LiveColumns(actx.Ctx, actx.Queue, a.Table)
	if err != nil {
		return err
	}
	if !slices.Equal(live, a.Columns) {
		return &AssertionError{
			Type:     AssertColumns,
			Expected: fmt.Sprintf("%s columns %v", a.Table, a.Columns),
			Actual:   fmt.Sprintf("%v", live),
			Trace:    trace,
		}
	}
	return nil
}

func assertRowCount(actx *AssertionContext, a Assertion, trace []TraceEvent) error {
	rows, err := selectRows(actx, queryir.KindCount, a.Table, nil)
	if err != nil {
		return err
	}
	var n int64
	if len(rows) > 0 && rows[0].Len() > 0 {
		if v, ok := rows[0].Values[0].(ir.Int); ok {
			n = int64(v)
		}
	}
	if n != int64(a.Count) {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows in %s", a.Count, a.Table),
			Actual:   fmt.Sprintf("%d rows", n),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState selects the rows matching Where and requires exactly one,
// whose columns must include Expect.
func assertFinalState(actx *AssertionContext, a Assertion, trace []TraceEvent) error {
	keys := sortedKeys(a.Where)
	preds := make([]queryir.Predicate, 0, len(keys))
	for _, k := range keys {
		if a.Where[k] == nil {
			preds = append(preds, queryir.IsNull{Column: k})
			continue
		}
		preds = append(preds, queryir.Eq(k, a.Where[k]))
	}

	rows, err := selectRows(actx, queryir.KindSelect, a.Table, queryir.AllOf(preds...))
	if err != nil {
		return err
	}
	if len(rows) != 1 {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("one row in %s where %v", a.Table, a.Where),
			Actual:   fmt.Sprintf("%d rows", len(rows)),
			Trace:    trace,
		}
	}

	row := rows[0]
	for _, col := range sortedKeys(a.Expect) {
		got, ok := row.Get(col)
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("column %s", col),
				Actual:   fmt.Sprintf("columns %v", row.Columns),
				Trace:    trace,
			}
		}
		if !matchValue(a.Expect[col], got) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s = %v", col, a.Expect[col]),
				Actual:   fmt.Sprintf("%s = %v", col, got),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceContains checks that some step executed exactly the statement.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, event := range trace {
		if slices.Contains(event.executed(), a.Statement) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("statement %q", a.Statement),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

func selectRows(actx *AssertionContext, kind queryir.Kind, table string, where queryir.Predicate) ([]ir.Row, error) {
	sql, params, err := querysql.Compile(queryir.Statement{Kind: kind, Table: table, Where: where})
	if err != nil {
		return nil, err
	}
	return actx.Queue.Query(actx.Ctx, sql, params...)
}

// matchValue compares a YAML scalar with a stored value. Integers and reals
// compare numerically.
func matchValue(expected any, actual ir.Value) bool {
	want, err := coerce.ToStorage(expected)
	if err != nil {
		return false
	}

	switch w := want.(type) {
	case ir.Null:
		_, ok := actual.(ir.Null)
		return ok || actual == nil
	case ir.Int:
		switch a := actual.(type) {
		case ir.Int:
			return a == w
		case ir.Real:
			return float64(a) == float64(w)
		}
	case ir.Real:
		switch a := actual.(type) {
		case ir.Real:
			return a == w
		case ir.Int:
			return float64(a) == float64(w)
		}
	case ir.Text:
		a, ok := actual.(ir.Text)
		return ok && a == w
	case ir.Blob:
		a, ok := actual.(ir.Blob)
		return ok && string(a) == string(w)
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
