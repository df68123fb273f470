// Package schemaspec loads table declarations from CUE or YAML files.
//
// A declaration names a table, the database file it lives in, its columns
// with SQL types, and optional table constraints. Column types map to storage
// classes with the same affinity rules used for explicit column descriptions.
package schemaspec

import (
	"fmt"
	"strings"

	"github.com/roach88/rowmap/internal/introspect"
	"github.com/roach88/rowmap/internal/ir"
)

// Table is one compiled table declaration.
type Table struct {
	Name string

	// Database is the database file name, or "" for the configured default.
	Database string

	Columns     ir.Schema
	Constraints []string
}

// ColumnDecl is one declared column before compilation.
type ColumnDecl struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	PrimaryKey bool   `yaml:"primary_key"`
	Unique     bool   `yaml:"unique"`
	NotNull    bool   `yaml:"not_null"`
}

// TableDecl is one declared table before compilation.
type TableDecl struct {
	Name        string       `yaml:"name"`
	Database    string       `yaml:"database"`
	Columns     []ColumnDecl `yaml:"columns"`
	Constraints []string     `yaml:"constraints"`
}

// DeclError is a declaration error with its source location when known.
type DeclError struct {
	Table   string
	Field   string
	Message string

	// Pos is "file:line:col" when the source carries positions.
	Pos string
}

func (e *DeclError) Error() string {
	msg := e.Message
	if e.Table != "" {
		msg = fmt.Sprintf("table %s: %s: %s", e.Table, e.Field, e.Message)
	} else if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	if e.Pos != "" {
		return e.Pos + ": " + msg
	}
	return msg
}

// Compile turns a declaration into a Table.
func Compile(d TableDecl) (Table, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return Table{}, &DeclError{Field: "name", Message: "table name is required"}
	}
	if len(d.Columns) == 0 {
		return Table{}, &DeclError{Table: name, Field: "columns", Message: "at least one column is required"}
	}

	t := Table{Name: name, Database: strings.TrimSpace(d.Database)}
	for i, c := range d.Columns {
		col, err := compileColumn(name, i, c)
		if err != nil {
			return Table{}, err
		}
		if t.Columns.Has(col.Name) {
			return Table{}, &DeclError{Table: name, Field: "columns", Message: fmt.Sprintf("duplicate column %q", col.Name)}
		}
		t.Columns = append(t.Columns, col)
	}
	for _, c := range d.Constraints {
		if c = strings.TrimSpace(c); c != "" {
			t.Constraints = append(t.Constraints, c)
		}
	}
	return t, nil
}

func compileColumn(table string, i int, c ColumnDecl) (ir.Column, error) {
	field := fmt.Sprintf("columns[%d]", i)
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ir.Column{}, &DeclError{Table: table, Field: field, Message: "column name is required"}
	}
	class, ok := introspect.ClassForDeclaredType(c.Type)
	if !ok {
		return ir.Column{}, &DeclError{Table: table, Field: field + ".type",
			Message: fmt.Sprintf("column %s: unsupported type %q", name, c.Type)}
	}

	col := ir.Column{Name: name, Class: class}
	if c.PrimaryKey {
		col.Constraints = append(col.Constraints, "PRIMARY KEY")
	}
	if c.Unique {
		col.Constraints = append(col.Constraints, "UNIQUE")
	}
	if c.NotNull {
		col.Constraints = append(col.Constraints, "NOT NULL")
	}
	return col, nil
}

// compileAll compiles declarations in order, rejecting duplicate table names
// within one database.
func compileAll(decls []TableDecl) ([]Table, error) {
	seen := make(map[string]bool, len(decls))
	out := make([]Table, 0, len(decls))
	for _, d := range decls {
		t, err := Compile(d)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(t.Database + "\x00" + t.Name)
		if seen[key] {
			return nil, &DeclError{Table: t.Name, Field: "name", Message: "declared more than once"}
		}
		seen[key] = true
		out = append(out, t)
	}
	return out, nil
}
