package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowmap/internal/ir"
	"github.com/roach88/rowmap/internal/ormerr"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"result": "a<b"}))

	assert.Contains(t, buf.String(), "a<b", "HTML is not escaped")
	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONFailWithMappingError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	cause := ormerr.Execution("songs", "select", errors.New("no such table: songs"))
	err := formatter.Fail(WrapExitError(ExitFailure, "", "select", cause))
	require.Error(t, err)
	assert.True(t, Reported(err))

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "EXECUTION_FAILURE", resp.Error.Code)
	assert.Equal(t, "songs", resp.Error.Table)
}

func TestOutputFormatter_TextFail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Fail(WrapExitError(ExitCommandError, ErrCodeSchemaFile, "failed to load x.cue", errors.New("boom")))
	require.Error(t, err)
	assert.Contains(t, buf.String(), "Error [E003]")
	assert.Contains(t, buf.String(), "failed to load x.cue: boom")

	buf.Reset()
	_ = formatter.Fail(errors.New("plain"))
	assert.Contains(t, buf.String(), "Error [E001]: plain")
}

func TestOutputFormatter_TextFailVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	_ = formatter.Fail(ormerr.SchemaMismatch("songs", "tag", "missing"))
	assert.Contains(t, buf.String(), "Error [SCHEMA_MISMATCH]")
	assert.Contains(t, buf.String(), "Details: table=songs column=tag")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, diag := &bytes.Buffer{}, &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag, Verbose: tt.verbose}

			formatter.VerboseLog("Processing %s", "schema.cue")

			assert.Empty(t, out.String())
			if tt.wantLog {
				assert.Contains(t, diag.String(), "Processing schema.cue")
			} else {
				assert.Empty(t, diag.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("x")))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "", "x", nil)))
}

func TestRowSet_Render(t *testing.T) {
	rows := RowSet{
		{Columns: []string{"id", "title", "art"}, Values: []ir.Value{ir.Int(1), ir.Text("Blue"), ir.Blob{0xca, 0xfe}}},
		{Columns: []string{"id", "title", "art"}, Values: []ir.Value{ir.Int(2), ir.Null{}, ir.Null{}}},
	}

	var text bytes.Buffer
	require.NoError(t, rows.RenderText(&text))
	assert.Contains(t, text.String(), "x'cafe'")
	assert.Contains(t, text.String(), "NULL")
	assert.Contains(t, text.String(), "(2 rows)")

	data, err := json.Marshal(rows)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"art":"yv4=","id":1,"title":"Blue"},{"art":null,"id":2,"title":null}]`, string(data))
}
