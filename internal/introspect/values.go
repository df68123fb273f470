package introspect

import (
	"fmt"
	"reflect"

	"github.com/roach88/rowmap/internal/coerce"
	"github.com/roach88/rowmap/internal/ir"
	"github.com/roach88/rowmap/internal/ormerr"
)

// Extract reads the bound fields of obj and returns column names with their
// storage values, in schema order. obj must be a struct or a non-nil pointer
// to one, of the mapped type.
func (m *Mapping) Extract(obj reflect.Value) ([]string, []ir.Value, error) {
	sv, err := structValue(obj)
	if err != nil {
		return nil, nil, err
	}

	fields := m.BoundFields()
	columns := make([]string, 0, len(fields))
	values := make([]ir.Value, 0, len(fields))
	for _, f := range fields {
		v, err := coerce.ToStorageValue(sv.FieldByIndex(f.Index))
		if err != nil {
			return nil, nil, ormerr.UnsupportedType(f.Column, "%v", err)
		}
		columns = append(columns, f.Column)
		values = append(values, v)
	}
	return columns, values, nil
}

// Assign writes row values into the bound fields of dst, which must be a
// non-nil pointer to the mapped struct. Columns absent from the row are
// returned in missing and their fields keep the zero value.
func (m *Mapping) Assign(dst reflect.Value, row ir.Row) (missing []string, err error) {
	if dst.Kind() != reflect.Pointer || dst.IsNil() {
		return nil, fmt.Errorf("assign %s: destination must be a non-nil pointer", m.Table)
	}
	sv := dst.Elem()

	for _, f := range m.BoundFields() {
		raw, ok := row.Get(f.Column)
		if !ok {
			missing = append(missing, f.Column)
			continue
		}
		val, err := coerce.FromStorage(raw, f.Type)
		if err != nil {
			e := ormerr.SchemaMismatch(m.Table, f.Column, "cannot decode stored value")
			e.Err = err
			return missing, e
		}
		sv.FieldByIndex(f.Index).Set(val)
	}
	return missing, nil
}

func structValue(obj reflect.Value) (reflect.Value, error) {
	if obj.Kind() == reflect.Pointer {
		if obj.IsNil() {
			return reflect.Value{}, fmt.Errorf("extract: nil pointer")
		}
		obj = obj.Elem()
	}
	if obj.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("extract: %s is not a struct", obj.Type())
	}
	return obj, nil
}
