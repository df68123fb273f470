// Package capability defines the contract an object satisfies to be persisted.
//
// A type opts in by implementing Persistable. Every other hook is optional and
// discovered with a type assertion at first use; there is no registration
// step. Validation happens in Describe, so a type without a table name fails
// the first time it is persisted, not when it is declared.
package capability

import (
	"strings"

	"github.com/roach88/rowmap/internal/ormerr"
)

// DefaultDatabaseName is the database file used when a type does not
// implement DatabaseNamer.
const DefaultDatabaseName = "user_db.sqlite"

// Persistable is the required capability: the name of the backing table.
type Persistable interface {
	TableName() string
}

// DatabaseNamer overrides the database file a type is stored in.
type DatabaseNamer interface {
	DatabaseName() string
}

// ColumnDescriber supplies an explicit schema as SQL column definitions,
// e.g. "id INTEGER PRIMARY KEY, title TEXT". It disables reflection.
type ColumnDescriber interface {
	ColumnDescription() string
}

// IgnoreKeyer lists attribute names excluded from automatic reflection.
// Must not be combined with ColumnDescriber.
type IgnoreKeyer interface {
	IgnoreKeys() []string
}

// TableConstrainer appends table constraints such as
// "PRIMARY KEY(id), UNIQUE(a, b)" to CREATE TABLE in automatic mode.
// The fragment is trusted SQL.
type TableConstrainer interface {
	TableConstraints() string
}

// Descriptor is the resolved, read-only capability of one object type.
type Descriptor struct {
	TableName         string
	DatabaseName      string
	ColumnDescription string
	IgnoreKeys        map[string]struct{}
	TableConstraints  string
}

// Explicit reports whether the descriptor carries an explicit schema.
func (d Descriptor) Explicit() bool {
	return d.ColumnDescription != ""
}

// Ignored reports whether the attribute name is in the ignore-list.
func (d Descriptor) Ignored(name string) bool {
	_, ok := d.IgnoreKeys[name]
	return ok
}

// Describe reads the capability hooks of obj and validates them.
//
// Returns a CONFIGURATION error when obj is not Persistable, the table name is
// blank, or both ColumnDescriber and a non-empty IgnoreKeyer are implemented.
func Describe(obj any) (Descriptor, error) {
	p, ok := obj.(Persistable)
	if !ok {
		return Descriptor{}, ormerr.Configuration("", "%T does not implement TableName()", obj)
	}

	d := Descriptor{
		TableName:    strings.TrimSpace(p.TableName()),
		DatabaseName: DefaultDatabaseName,
	}
	if d.TableName == "" {
		return Descriptor{}, ormerr.Configuration("", "%T returned an empty table name", obj)
	}

	if n, ok := obj.(DatabaseNamer); ok {
		if name := strings.TrimSpace(n.DatabaseName()); name != "" {
			d.DatabaseName = name
		}
	}

	if c, ok := obj.(ColumnDescriber); ok {
		d.ColumnDescription = strings.TrimSpace(c.ColumnDescription())
	}

	if k, ok := obj.(IgnoreKeyer); ok {
		keys := k.IgnoreKeys()
		if len(keys) > 0 && d.Explicit() {
			return Descriptor{}, ormerr.Configuration(d.TableName,
				"%T implements both ColumnDescription and IgnoreKeys", obj)
		}
		d.IgnoreKeys = make(map[string]struct{}, len(keys))
		for _, key := range keys {
			d.IgnoreKeys[key] = struct{}{}
		}
	}

	if c, ok := obj.(TableConstrainer); ok {
		d.TableConstraints = strings.TrimSpace(c.TableConstraints())
	}

	return d, nil
}
