package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rowmap/internal/ir"
)

// Snapshot renders a trace as canonical JSON followed by a newline. Every
// event carries seq and type; migrate events always carry statements, exec
// events affected and query events rows.
func Snapshot(name string, trace []TraceEvent) ([]byte, error) {
	events := make([]any, len(trace))
	for i, e := range trace {
		m := map[string]any{
			"seq":  e.Seq,
			"type": e.Type,
		}
		switch e.Type {
		case StepMigrate:
			m["table"] = e.Table
			m["statements"] = e.Statements
		case StepExec:
			m["sql"] = e.SQL
			m["affected"] = e.Affected
		case StepQuery:
			m["sql"] = e.SQL
			m["rows"] = e.Rows
		}
		if len(e.Args) > 0 {
			m["args"] = e.Args
		}
		if e.Error != "" {
			m["error"] = e.Error
		}
		events[i] = m
	}

	data, err := ir.MarshalCanonical(map[string]any{
		"scenario": name,
		"trace":    events,
	})
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden runs a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares a result's trace against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
