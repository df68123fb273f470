package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ResolvesMigratePaths(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/add_column.yaml")
	require.NoError(t, err)

	assert.Equal(t, "add_column", scenario.Name)
	require.Len(t, scenario.Steps, 6)
	assert.Equal(t, filepath.Join("testdata", "schemas", "songs_v1.yaml"), scenario.Steps[0].Migrate)
	assert.Equal(t, StepMigrate, scenario.Steps[0].Kind())
	assert.Equal(t, StepExec, scenario.Steps[1].Kind())
	assert.Equal(t, StepQuery, scenario.Steps[4].Kind())
	assert.Equal(t, []any{1, "Blue"}, scenario.Steps[1].Args)
	require.NotNil(t, scenario.Steps[1].Expect)
	assert.Equal(t, 1, *scenario.Steps[1].Expect.Rows)
	assert.Len(t, scenario.Assertions, 4)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MissingDeclarationFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\nsteps:\n  - migrate: gone.yaml\n"), 0600))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0]")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", "name: x\nstep: []\n", "failed to parse YAML"},
		{"missing name", "steps:\n  - exec: SELECT 1\n", "name is required"},
		{"no steps", "name: x\n", "at least one step"},
		{"two kinds", "name: x\nsteps:\n  - exec: SELECT 1\n    query: SELECT 1\n", "exactly one of"},
		{"empty step", "name: x\nsteps:\n  - args: [1]\n", "exactly one of"},
		{"args on migrate", "name: x\nsteps:\n  - migrate: a.yaml\n    args: [1]\n", "args are not allowed"},
		{"rows on migrate", "name: x\nsteps:\n  - migrate: a.yaml\n    expect: {rows: 1}\n", "expect.rows is not allowed"},
		{"negative rows", "name: x\nsteps:\n  - exec: SELECT 1\n    expect: {rows: -1}\n", "non-negative"},
		{"unknown assertion", "name: x\nsteps:\n  - exec: SELECT 1\nassertions:\n  - type: vibes\n", "unknown assertion type"},
		{"columns without list", "name: x\nsteps:\n  - exec: SELECT 1\nassertions:\n  - type: columns\n    table: t\n", "columns list is required"},
		{"bad table", "name: x\nsteps:\n  - exec: SELECT 1\nassertions:\n  - type: row_count\n    table: \"t; DROP\"\n", "invalid table name"},
		{"final_state without expect", "name: x\nsteps:\n  - exec: SELECT 1\nassertions:\n  - type: final_state\n    table: t\n", "expect is required"},
		{"trace_contains without statement", "name: x\nsteps:\n  - exec: SELECT 1\nassertions:\n  - type: trace_contains\n", "statement is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
