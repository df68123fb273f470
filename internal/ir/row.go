package ir

import "strings"

// Row is one result row as returned by the database queue.
// Columns and Values are parallel slices in result-set order.
type Row struct {
	Columns []string
	Values  []Value
}

// Get returns the value of the named column. An exact match wins over a
// case-insensitive one.
func (r Row) Get(name string) (Value, bool) {
	for i, c := range r.Columns {
		if c == name {
			return r.Values[i], true
		}
	}
	for i, c := range r.Columns {
		if strings.EqualFold(c, name) {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Len returns the number of columns in the row.
func (r Row) Len() int {
	return len(r.Columns)
}
