// Package introspect derives the column schema of a persistable Go type.
//
// A Mapping is computed once per reflect.Type and cached for the life of the
// Resolver. Two modes exist:
//
//   - Automatic: exported struct fields in declaration order become columns.
//     Embedded structs are flattened. A `db:"name,pk,unique,notnull"` tag
//     renames the column and adds constraints; `db:"-"` and the descriptor's
//     ignore-list exclude a field. Fields whose type has no storage class are
//     skipped.
//   - Explicit: the descriptor's column description is parsed and is the
//     schema. Struct fields are bound to columns by name for reading and
//     writing; columns with no matching field are left unbound.
//
// Unsupported types are a hard error in explicit mode only.
package introspect

import (
	"reflect"
	"strings"
	"sync"

	"github.com/roach88/rowmap/internal/capability"
	"github.com/roach88/rowmap/internal/coerce"
	"github.com/roach88/rowmap/internal/ir"
	"github.com/roach88/rowmap/internal/ormerr"
)

// Field binds one column to a struct field.
type Field struct {
	Column string
	Class  ir.StorageClass

	// Index is the reflect index path of the struct field, nil when the
	// column has no field (explicit mode only).
	Index []int

	// Type is the Go type of the field, nil when unbound.
	Type reflect.Type
}

// Bound reports whether the column is backed by a struct field.
func (f Field) Bound() bool {
	return f.Index != nil
}

// Mapping is the resolved persistence layout of one Go type.
type Mapping struct {
	Table    string
	Database string
	Schema   ir.Schema

	// Fields is parallel to Schema.
	Fields []Field

	Explicit bool

	// Constraints are table-level constraint fragments appended to
	// CREATE TABLE.
	Constraints []string

	// Skipped lists struct fields left out in automatic mode because their
	// type has no storage class.
	Skipped []string
}

// BoundFields returns the fields backed by struct fields, in schema order.
func (m *Mapping) BoundFields() []Field {
	out := make([]Field, 0, len(m.Fields))
	for _, f := range m.Fields {
		if f.Bound() {
			out = append(out, f)
		}
	}
	return out
}

// Field returns the field for the named column.
func (m *Mapping) Field(column string) (Field, bool) {
	if i := m.Schema.Index(column); i >= 0 {
		return m.Fields[i], true
	}
	return Field{}, false
}

// Resolver computes and caches mappings per type.
type Resolver struct {
	mu    sync.Mutex
	cache map[reflect.Type]*Mapping
}

// NewResolver returns an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{cache: make(map[reflect.Type]*Mapping)}
}

var defaultResolver = NewResolver()

// Default returns the process-wide resolver.
func Default() *Resolver {
	return defaultResolver
}

// Resolve returns the mapping for t. Pointer types resolve to their element
// type. The descriptor must be the one obtained from a value of t; it is only
// consulted on the first call for a type.
func (r *Resolver) Resolve(t reflect.Type, d capability.Descriptor) (*Mapping, error) {
	t = structType(t)
	if t == nil {
		return nil, ormerr.Configuration(d.TableName, "persistable type must be a struct or pointer to struct")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.cache[t]; ok {
		return m, nil
	}

	var (
		m   *Mapping
		err error
	)
	if d.Explicit() {
		m, err = resolveExplicit(t, d)
	} else {
		m, err = resolveAutomatic(t, d)
	}
	if err != nil {
		return nil, err
	}

	r.cache[t] = m
	return m, nil
}

// cached returns the number of cached mappings.
func (r *Resolver) cached() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

func structType(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

// structField is one candidate attribute found by walking a struct.
type structField struct {
	Name    string // Go field name
	Column  string
	Index   []int
	Type    reflect.Type
	Options tagOptions
}

type tagOptions struct {
	PrimaryKey bool
	Unique     bool
	NotNull    bool
}

func (o tagOptions) constraints() []string {
	var out []string
	if o.PrimaryKey {
		out = append(out, "PRIMARY KEY")
	}
	if o.Unique {
		out = append(out, "UNIQUE")
	}
	if o.NotNull {
		out = append(out, "NOT NULL")
	}
	return out
}

// parseTag splits a db tag into column name and options. ok is false for
// `db:"-"`.
func parseTag(tag string) (name string, opts tagOptions, ok bool) {
	if tag == "-" {
		return "", opts, false
	}
	parts := strings.Split(tag, ",")
	name = strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "pk", "primarykey":
			opts.PrimaryKey = true
		case "unique":
			opts.Unique = true
		case "notnull":
			opts.NotNull = true
		}
	}
	return name, opts, true
}

// walkFields lists exported fields in declaration order, flattening embedded
// structs that carry no column name of their own. Time, URL and UUID values
// are structs but are never flattened.
func walkFields(t reflect.Type, prefix []int, out []structField) []structField {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		tag, hasTag := sf.Tag.Lookup("db")
		name, opts, keep := parseTag(tag)
		if !keep {
			continue
		}

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && name == "" && !coerce.Supported(sf.Type) {
			out = walkFields(sf.Type, index, out)
			continue
		}
		if !sf.IsExported() {
			continue
		}

		if !hasTag || name == "" {
			name = sf.Name
		}
		out = append(out, structField{
			Name:    sf.Name,
			Column:  name,
			Index:   index,
			Type:    sf.Type,
			Options: opts,
		})
	}
	return out
}

func resolveAutomatic(t reflect.Type, d capability.Descriptor) (*Mapping, error) {
	m := &Mapping{
		Table:    d.TableName,
		Database: d.DatabaseName,
	}
	if d.TableConstraints != "" {
		m.Constraints = []string{d.TableConstraints}
	}

	for _, f := range walkFields(t, nil, nil) {
		if d.Ignored(f.Name) || d.Ignored(f.Column) {
			continue
		}
		class, err := coerce.StorageClassFor(f.Type)
		if err != nil {
			m.Skipped = append(m.Skipped, f.Name)
			continue
		}
		if m.Schema.Has(f.Column) {
			m.Skipped = append(m.Skipped, f.Name)
			continue
		}

		m.Schema = append(m.Schema, ir.Column{
			Name:        f.Column,
			Class:       class,
			Constraints: f.Options.constraints(),
		})
		m.Fields = append(m.Fields, Field{
			Column: f.Column,
			Class:  class,
			Index:  f.Index,
			Type:   f.Type,
		})
	}

	if len(m.Schema) == 0 {
		return nil, ormerr.Configuration(d.TableName, "%s has no persistable fields", t)
	}
	return m, nil
}

func resolveExplicit(t reflect.Type, d capability.Descriptor) (*Mapping, error) {
	parsed, err := parseDescription(d.TableName, d.ColumnDescription)
	if err != nil {
		return nil, err
	}

	m := &Mapping{
		Table:       d.TableName,
		Database:    d.DatabaseName,
		Schema:      parsed.Columns,
		Explicit:    true,
		Constraints: parsed.Constraints,
	}

	candidates := walkFields(t, nil, nil)
	for _, col := range parsed.Columns {
		f := Field{Column: col.Name, Class: col.Class}
		if sf, ok := matchField(candidates, col.Name); ok {
			if _, err := coerce.StorageClassFor(sf.Type); err != nil {
				return nil, ormerr.UnsupportedType(col.Name, "field %s.%s of type %s has no storage class", t.Name(), sf.Name, sf.Type)
			}
			f.Index = sf.Index
			f.Type = sf.Type
		}
		m.Fields = append(m.Fields, f)
	}
	return m, nil
}

// matchField finds the struct field for a column: an exact column-name match
// first, then a case-insensitive match on column or Go field name.
func matchField(fields []structField, column string) (structField, bool) {
	for _, f := range fields {
		if f.Column == column {
			return f, true
		}
	}
	for _, f := range fields {
		if strings.EqualFold(f.Column, column) || strings.EqualFold(f.Name, column) {
			return f, true
		}
	}
	return structField{}, false
}
