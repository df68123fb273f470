package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowmap/internal/ir"
)

func loadAndRun(t *testing.T, path string) *Result {
	t.Helper()
	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	result, err := Run(scenario)
	require.NoError(t, err)
	return result
}

func TestRun_Scenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			result := loadAndRun(t, path)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_AddColumnTrace(t *testing.T) {
	result := loadAndRun(t, "testdata/scenarios/add_column.yaml")
	require.Len(t, result.Trace, 6)

	for i, e := range result.Trace {
		assert.Equal(t, i+1, e.Seq)
	}

	first := result.Trace[0]
	assert.Equal(t, StepMigrate, first.Type)
	assert.Equal(t, []string{"CREATE TABLE IF NOT EXISTS songs (id INTEGER UNIQUE, title TEXT)"}, first.Statements)

	assert.Equal(t, []string{"ALTER TABLE songs ADD COLUMN tag TEXT"}, result.Trace[2].Statements)
	assert.Empty(t, result.Trace[5].Statements, "second run of the same declaration is a no-op")

	query := result.Trace[4]
	require.Len(t, query.Rows, 2)
	tag, ok := query.Rows[0].Get("tag")
	require.True(t, ok)
	assert.Equal(t, ir.Null{}, tag)
}

func TestRun_ConflictsRecordErrorCode(t *testing.T) {
	result := loadAndRun(t, "testdata/scenarios/conflicts.yaml")
	require.Len(t, result.Trace, 5)
	assert.Equal(t, "EXECUTION_FAILURE", result.Trace[2].Error)
	assert.Equal(t, int64(0), result.Trace[3].Affected)
}

func TestRun_UnexpectedOutcomesFail(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: failing
steps:
  - exec: "CREATE TABLE t (id INTEGER UNIQUE)"
  - exec: "INSERT INTO t (id) VALUES (?)"
    args: [1]
    expect: { rows: 2 }
  - exec: "INSERT INTO t (id) VALUES (?)"
    args: [1]
  - exec: "INSERT INTO t (id) VALUES (?)"
    args: [2]
    expect: { error: EXECUTION_FAILURE }
  - query: "SELECT * FROM missing"
    expect: { error: SCHEMA_MISMATCH }
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "expected 2 rows, got 1")
	assert.Contains(t, result.Errors[1], "unexpected error")
	assert.Contains(t, result.Errors[2], "expected error EXECUTION_FAILURE, got success")
	assert.Contains(t, result.Errors[3], "expected error SCHEMA_MISMATCH, got EXECUTION_FAILURE")
}

func TestRun_UnreadableDeclarationIsAnError(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("tables: [{name: t, columns: [{name: a, type: GEOMETRY}]}]\n"), 0600))

	_, err := Run(&Scenario{Name: "bad", Steps: []Step{{Migrate: bad}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0]")
}

func TestRun_IsolatedDatabases(t *testing.T) {
	scenario := &Scenario{
		Name:  "isolated",
		Steps: []Step{{Exec: "CREATE TABLE only_once (id INTEGER)"}},
	}
	for range 2 {
		result, err := Run(scenario)
		require.NoError(t, err)
		assert.True(t, result.Pass, "errors: %v", result.Errors)
	}
}
