package ir

import "strings"

// Column is one entry of a column schema.
//
// Definition, when set, is the verbatim SQL column definition supplied by the
// caller (explicit schema mode) and is rendered as-is in CREATE TABLE.
// Otherwise the builder renders Name, Class and Constraints.
type Column struct {
	Name        string
	Class       StorageClass
	Constraints []string // e.g. "PRIMARY KEY", "UNIQUE", "NOT NULL"
	Definition  string
}

// Schema is an ordered column list. Names are unique (case-insensitive, as
// SQLite treats them).
type Schema []Column

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// Has reports whether the schema contains the named column.
func (s Schema) Has(name string) bool {
	return s.Index(name) >= 0
}

// Lookup returns the named column.
func (s Schema) Lookup(name string) (Column, bool) {
	if i := s.Index(name); i >= 0 {
		return s[i], true
	}
	return Column{}, false
}
