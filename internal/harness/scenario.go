package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is one mapping test: steps run in order, then assertions.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps run in order against one database.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and trace.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is exactly one of a migration, a statement or a query.
type Step struct {
	// Migrate is a CUE or YAML declaration file; every table in it is
	// reconciled.
	Migrate string `yaml:"migrate,omitempty"`

	// Exec is a trusted SQL statement.
	Exec string `yaml:"exec,omitempty"`

	// Query is a trusted SQL query whose rows are recorded.
	Query string `yaml:"query,omitempty"`

	// Args bind the ? placeholders of Exec or Query.
	Args []any `yaml:"args,omitempty"`

	// Expect checks the step outcome. Nil means the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Kind returns "migrate", "exec" or "query".
func (s Step) Kind() string {
	switch {
	case s.Migrate != "":
		return StepMigrate
	case s.Exec != "":
		return StepExec
	default:
		return StepQuery
	}
}

// Expect is the expected outcome of a step.
type Expect struct {
	// Rows is the affected row count of an exec or the result size of a
	// query.
	Rows *int `yaml:"rows,omitempty"`

	// Error is the expected error code, such as EXECUTION_FAILURE.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the final state or the trace.
type Assertion struct {
	Type string `yaml:"type"`

	// Table is used by columns, row_count and final_state.
	Table string `yaml:"table,omitempty"`

	// Columns is the expected live column list (columns).
	Columns []string `yaml:"columns,omitempty"`

	// Count is the expected row count (row_count).
	Count int `yaml:"count,omitempty"`

	// Where selects one row by column equality (final_state).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect is a subset of the selected row (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Statement is matched exactly against executed SQL (trace_contains).
	Statement string `yaml:"statement,omitempty"`
}

// Step kinds.
const (
	StepMigrate = "migrate"
	StepExec    = "exec"
	StepQuery   = "query"
)

// Assertion type constants.
const (
	AssertColumns       = "columns"
	AssertRowCount      = "row_count"
	AssertFinalState    = "final_state"
	AssertTraceContains = "trace_contains"
)

// LoadScenario reads and parses a scenario YAML file. Migrate paths are
// resolved relative to the file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i, step := range scenario.Steps {
		if step.Migrate != "" && !filepath.IsAbs(step.Migrate) {
			scenario.Steps[i].Migrate = filepath.Join(base, step.Migrate)
		}
	}
	for i, step := range scenario.Steps {
		if step.Migrate == "" {
			continue
		}
		if _, err := os.Stat(step.Migrate); err != nil {
			return nil, fmt.Errorf("invalid scenario: steps[%d]: %w", i, err)
		}
	}
	return scenario, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if len(s.Steps) == 0 {
		return errors.New("at least one step is required")
	}
	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step Step) error {
	set := 0
	for _, v := range []string{step.Migrate, step.Exec, step.Query} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of migrate, exec or query is required", index)
	}
	if step.Migrate != "" {
		if len(step.Args) > 0 {
			return fmt.Errorf("steps[%d]: args are not allowed on migrate", index)
		}
		if step.Expect != nil && step.Expect.Rows != nil {
			return fmt.Errorf("steps[%d]: expect.rows is not allowed on migrate", index)
		}
	}
	if step.Expect != nil && step.Expect.Rows != nil && *step.Expect.Rows < 0 {
		return fmt.Errorf("steps[%d]: expect.rows must be non-negative", index)
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertColumns:
		if len(a.Columns) == 0 {
			return fmt.Errorf("assertions[%d]: columns list is required for columns", index)
		}
	case AssertRowCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertTraceContains:
		if a.Statement == "" {
			return fmt.Errorf("assertions[%d]: statement is required for trace_contains", index)
		}
		return nil
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if !validIdentifier.MatchString(a.Table) {
		return fmt.Errorf("assertions[%d]: invalid table name %q", index, a.Table)
	}
	return nil
}
