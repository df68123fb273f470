package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/rowmap/internal/ormerr"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failed (execution error, partial migration)
	ExitCommandError = 2 // Command error (bad flags, unreadable config or schema file)
)

// CLI-level error codes. Mapping errors report their own code instead.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeConfig     = "E002" // Configuration could not be loaded
	ErrCodeSchemaFile = "E003" // Schema declarations could not be loaded
	ErrCodeDatabase   = "E004" // Database could not be opened
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	ErrCode string // Error code shown to the user
	Message string
	Err     error

	reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode implements the interface main checks for.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, errCode, message string, err error) *ExitError {
	return &ExitError{Code: code, ErrCode: errCode, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Reported reports whether err was already written by an OutputFormatter.
func Reported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.reported
}

// textRenderer is implemented by results with a human-readable form.
type textRenderer interface {
	RenderText(w io.Writer) error
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Diagnostic output; defaults to Writer
	Verbose   bool
}

// Response is the JSON envelope of every command.
type Response struct {
	Status string     `json:"status"`          // "ok" or "error"
	Data   any        `json:"data,omitempty"`  // success payload
	Error  *ErrorBody `json:"error,omitempty"` // error details
}

// ErrorBody is the error structure for JSON output.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Table   string `json:"table,omitempty"`
	Column  string `json:"column,omitempty"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(Response{Status: "ok", Data: data})
	}
	if r, ok := data.(textRenderer); ok {
		return r.RenderText(f.Writer)
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Fail reports err in the configured format and returns it, so a command can
// end with `return f.Fail(err)`.
func (f *OutputFormatter) Fail(err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		exitErr.reported = true
	}

	body := errorBody(err)
	if f.Format == "json" {
		if encErr := f.encode(Response{Status: "error", Error: body}); encErr != nil {
			return encErr
		}
		return err
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", body.Code, body.Message)
	if f.Verbose && (body.Table != "" || body.Column != "") {
		fmt.Fprintf(f.Writer, "Details: table=%s column=%s\n", body.Table, body.Column)
	}
	return err
}

func errorBody(err error) *ErrorBody {
	body := &ErrorBody{Code: ErrCodeGeneric, Message: err.Error()}

	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.ErrCode != "" {
		body.Code = exitErr.ErrCode
	}
	var oe *ormerr.Error
	if errors.As(err, &oe) {
		body.Code = string(oe.Code)
		body.Table = oe.Table
		body.Column = oe.Column
	}
	return body
}

func (f *OutputFormatter) encode(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// VerboseLog outputs a message only if verbose mode is enabled. It writes to
// ErrWriter when set so JSON output stays clean.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
