// Package ormerr defines the error taxonomy shared by the mapping layer.
//
// Every failure surfaced by rowmap is an *Error carrying a Code, so callers
// can branch with the IsXxx helpers without parsing messages. Helpers use
// errors.As and therefore see through fmt.Errorf("...: %w") wrapping.
package ormerr

import (
	"errors"
	"fmt"
)

// Code categorizes mapping-layer errors.
type Code string

const (
	// CodeConfiguration indicates an invalid capability descriptor, such as a
	// missing table name.
	CodeConfiguration Code = "CONFIGURATION"

	// CodeUnsupportedType indicates a host type or declared SQL type the
	// coercion table cannot render.
	CodeUnsupportedType Code = "UNSUPPORTED_ATTRIBUTE_TYPE"

	// CodeSchemaMismatch indicates the declared schema and a stored row
	// disagree. The façade recovers from it and only logs.
	CodeSchemaMismatch Code = "SCHEMA_MISMATCH"

	// CodeExecution indicates the database queue reported a failure.
	CodeExecution Code = "EXECUTION_FAILURE"

	// CodeMigrationPartial indicates an ALTER in a reconciliation sequence
	// failed after zero or more earlier ALTERs were applied.
	CodeMigrationPartial Code = "MIGRATION_PARTIAL_FAILURE"
)

// Error is a mapping-layer error with structured context.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Table is the affected table, if known.
	Table string

	// Column is the affected column or attribute, if any.
	Column string

	// Message is a human-readable description.
	Message string

	// Applied lists columns already added before a migration failed.
	Applied []string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Table != "" && e.Column != "":
		msg = fmt.Sprintf("%s (table=%s, column=%s)", msg, e.Table, e.Column)
	case e.Table != "":
		msg = fmt.Sprintf("%s (table=%s)", msg, e.Table)
	case e.Column != "":
		msg = fmt.Sprintf("%s (column=%s)", msg, e.Column)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Configuration returns a CONFIGURATION error.
func Configuration(table, format string, args ...any) *Error {
	return &Error{Code: CodeConfiguration, Table: table, Message: fmt.Sprintf(format, args...)}
}

// UnsupportedType returns an UNSUPPORTED_ATTRIBUTE_TYPE error for column.
func UnsupportedType(column, format string, args ...any) *Error {
	return &Error{Code: CodeUnsupportedType, Column: column, Message: fmt.Sprintf(format, args...)}
}

// SchemaMismatch returns a SCHEMA_MISMATCH error.
func SchemaMismatch(table, column, format string, args ...any) *Error {
	return &Error{Code: CodeSchemaMismatch, Table: table, Column: column, Message: fmt.Sprintf(format, args...)}
}

// Execution wraps a database queue failure.
func Execution(table, op string, err error) *Error {
	return &Error{Code: CodeExecution, Table: table, Message: op, Err: err}
}

// MigrationPartial reports a failed ALTER after the applied columns.
func MigrationPartial(table, column string, applied []string, err error) *Error {
	return &Error{
		Code:    CodeMigrationPartial,
		Table:   table,
		Column:  column,
		Message: fmt.Sprintf("add column failed after %d applied", len(applied)),
		Applied: applied,
		Err:     err,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsConfiguration returns true if err is a CONFIGURATION error.
func IsConfiguration(err error) bool { return CodeOf(err) == CodeConfiguration }

// IsUnsupportedType returns true if err is an UNSUPPORTED_ATTRIBUTE_TYPE error.
func IsUnsupportedType(err error) bool { return CodeOf(err) == CodeUnsupportedType }

// IsSchemaMismatch returns true if err is a SCHEMA_MISMATCH error.
func IsSchemaMismatch(err error) bool { return CodeOf(err) == CodeSchemaMismatch }

// IsExecution returns true if err is an EXECUTION_FAILURE error.
func IsExecution(err error) bool { return CodeOf(err) == CodeExecution }

// IsMigrationPartial returns true if err is a MIGRATION_PARTIAL_FAILURE error.
func IsMigrationPartial(err error) bool { return CodeOf(err) == CodeMigrationPartial }
