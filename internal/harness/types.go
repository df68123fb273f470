package harness

import "github.com/roach88/rowmap/internal/ir"

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq  int    `json:"seq"`
	Type string `json:"type"` // "migrate", "exec" or "query"

	// Table is the reconciled table (migrate).
	Table string `json:"table,omitempty"`

	// Statements are the SQL statements a migration ran.
	Statements []string `json:"statements,omitempty"`

	// SQL and Args are the statement of an exec or query.
	SQL  string `json:"sql,omitempty"`
	Args []any  `json:"args,omitempty"`

	// Affected is the row count of an exec.
	Affected int64 `json:"affected,omitempty"`

	// Rows are the rows a query returned.
	Rows []ir.Row `json:"rows,omitempty"`

	// Error is the error code of a failed step.
	Error string `json:"error,omitempty"`
}

// executed returns every statement the event ran.
func (e TraceEvent) executed() []string {
	if e.SQL != "" {
		return []string{e.SQL}
	}
	return e.Statements
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per step, or per table for migrate steps.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) record(e TraceEvent) {
	e.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, e)
}
