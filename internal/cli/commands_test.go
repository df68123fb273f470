package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowmap/internal/store"
)

const songsV1 = `
tables:
  - name: songs
    columns:
      - {name: id, type: INTEGER, unique: true}
      - {name: title, type: TEXT}
      - {name: rating, type: REAL}
`

const songsV2 = songsV1 + `      - {name: tag, type: TEXT}
`

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	for _, env := range []string{"ROWMAP_DATABASE_DIR", "ROWMAP_DATABASE_NAME", "ROWMAP_LOG_LEVEL"} {
		t.Setenv(env, "")
	}
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func seedRows(t *testing.T, dbPath string) {
	t.Helper()
	s, err := store.Open(dbPath, store.DefaultOptions())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for _, row := range [][]any{{1, "low", 1.0}, {2, "high", 4.5}, {3, "mid", 2.0}} {
		_, err := s.Exec(ctx, "INSERT INTO songs (id, title, rating) VALUES (?, ?, ?)", row...)
		require.NoError(t, err)
	}
}

func TestMigrateAndPlan(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "music.sqlite")
	v1 := writeFile(t, dir, "v1.yaml", songsV1)
	v2 := writeFile(t, dir, "v2.yaml", songsV2)

	out, _, err := execute(t, "plan", v1, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS songs (id INTEGER UNIQUE, title TEXT, rating REAL);")

	_, _, err = execute(t, "migrate", v1, "--db", db)
	require.NoError(t, err)

	out, _, err = execute(t, "plan", v1, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "-- up to date")

	out, _, err = execute(t, "plan", v2, "--db", db, "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Status string     `json:"status"`
		Data   PlanResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Tables, 1)
	plan := resp.Data.Tables[0]
	assert.False(t, plan.Create)
	assert.Equal(t, []string{"tag"}, plan.Added)
	assert.Equal(t, []string{"ALTER TABLE songs ADD COLUMN tag TEXT"}, plan.Statements)
	assert.False(t, resp.Data.Applied)

	out, _, err = execute(t, "migrate", v2, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "ALTER TABLE songs ADD COLUMN tag TEXT;")

	out, _, err = execute(t, "tables", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "songs: id, title, rating, tag\n", out)
}

func TestSelect(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "music.sqlite")
	_, _, err := execute(t, "migrate", writeFile(t, dir, "s.yaml", songsV1), "--db", db)
	require.NoError(t, err)
	seedRows(t, db)

	out, _, err := execute(t, "select", "songs", "--db", db, "--order", "rating", "--desc", "--limit", "1", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Status string           `json:"status"`
		Data   []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "high", resp.Data[0]["title"])

	out, _, err = execute(t, "select", "songs", "--db", db, "--where", "rating < ?", "--arg", "2.5", "--order", "id")
	require.NoError(t, err)
	assert.Contains(t, out, "low")
	assert.Contains(t, out, "mid")
	assert.NotContains(t, out, "high")
	assert.Contains(t, out, "(2 rows)")

	_, _, err = execute(t, "select", "songs", "--db", db, "--arg", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRenameAndDrop(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "music.sqlite")
	_, _, err := execute(t, "migrate", writeFile(t, dir, "s.yaml", songsV1), "--db", db)
	require.NoError(t, err)

	out, _, err := execute(t, "rename", "songs", "archive", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "renamed songs to archive")

	out, _, err = execute(t, "tables", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "archive:")

	_, _, err = execute(t, "drop", "archive", "--db", db)
	require.NoError(t, err)

	out, _, err = execute(t, "tables", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "no tables")
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "music.sqlite")

	out, _, err := execute(t, "migrate", filepath.Join(dir, "missing.yaml"), "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, Reported(err))
	assert.Contains(t, out, "Error [E003]")

	out, _, err = execute(t, "select", "nope", "--db", db, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `"code":"EXECUTION_FAILURE"`)

	_, _, err = execute(t, "tables", "--config", filepath.Join(dir, "none.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
