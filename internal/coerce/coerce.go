// Package coerce is the type coercion table between Go attribute types and
// the four SQLite storage classes.
//
// The mapping is fixed:
//
//	bool, int*, uint*            INTEGER
//	float32, float64             REAL
//	string                       TEXT
//	[]byte                       BLOB
//	time.Time                    TEXT (ir.TimeLayout, UTC)
//	url.URL                      TEXT (String form)
//	uuid.UUID                    TEXT (canonical 36-char form)
//
// Named types coerce by their underlying kind. A pointer to a supported type
// is nullable: nil ↔ NULL. Everything else is rejected with an
// UNSUPPORTED_ATTRIBUTE_TYPE error.
package coerce

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/rowmap/internal/ir"
	"github.com/roach88/rowmap/internal/ormerr"
)

// ErrConversion is wrapped by every error raised when a stored value cannot
// be converted into the requested Go type.
var ErrConversion = errors.New("value conversion failed")

var (
	timeType = reflect.TypeOf(time.Time{})
	urlType  = reflect.TypeOf(url.URL{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// StorageClassFor returns the storage class for a Go type.
func StorageClassFor(t reflect.Type) (ir.StorageClass, error) {
	if t == nil {
		return 0, ormerr.UnsupportedType("", "nil type")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t {
	case timeType, urlType, uuidType:
		return ir.ClassText, nil
	}

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ir.ClassInteger, nil
	case reflect.Float32, reflect.Float64:
		return ir.ClassReal, nil
	case reflect.String:
		return ir.ClassText, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return ir.ClassBlob, nil
		}
	}
	return 0, ormerr.UnsupportedType("", "no storage class for Go type %s", t)
}

// Supported reports whether t has a storage class.
func Supported(t reflect.Type) bool {
	_, err := StorageClassFor(t)
	return err == nil
}

// ToStorage converts a Go value to a storage value. nil becomes NULL.
func ToStorage(v any) (ir.Value, error) {
	if v == nil {
		return ir.Null{}, nil
	}
	if sv, ok := v.(ir.Value); ok {
		return sv, nil
	}
	return ToStorageValue(reflect.ValueOf(v))
}

// ToStorageValue converts a reflected Go value to a storage value.
//
// uint64 values above math.MaxInt64 are stored bit-for-bit as negative
// INTEGERs; FromStorage reverses this, so the round trip is exact.
func ToStorageValue(rv reflect.Value) (ir.Value, error) {
	if !rv.IsValid() {
		return ir.Null{}, nil
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ir.Null{}, nil
		}
		rv = rv.Elem()
	}

	switch rv.Type() {
	case timeType:
		return ir.Text(ir.FormatTime(rv.Interface().(time.Time))), nil
	case urlType:
		u := rv.Interface().(url.URL)
		return ir.Text(u.String()), nil
	case uuidType:
		return ir.Text(rv.Interface().(uuid.UUID).String()), nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return ir.Int(1), nil
		}
		return ir.Int(0), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ir.Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ir.Int(int64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return ir.Real(rv.Float()), nil
	case reflect.String:
		return ir.Text(rv.String()), nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			if rv.IsNil() {
				return ir.Null{}, nil
			}
			out := make([]byte, rv.Len())
			copy(out, rv.Bytes())
			return ir.Blob(out), nil
		}
	}
	return nil, ormerr.UnsupportedType("", "no storage class for Go type %s", rv.Type())
}

// FromStorage converts a storage value into a value of type t.
//
// NULL yields the zero value of t (a nil pointer for pointer types).
// Conversions follow SQLite's loose typing: an INTEGER is accepted for a
// float field, an integral REAL for an integer field, and numeric TEXT for
// numeric fields.
func FromStorage(v ir.Value, t reflect.Type) (reflect.Value, error) {
	if _, err := StorageClassFor(t); err != nil {
		return reflect.Value{}, err
	}

	if t.Kind() == reflect.Pointer {
		if ir.IsNull(v) {
			return reflect.Zero(t), nil
		}
		inner, err := FromStorage(v, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(inner)
		return p, nil
	}

	if ir.IsNull(v) {
		return reflect.Zero(t), nil
	}

	switch t {
	case timeType:
		tm, err := toTime(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(tm), nil
	case urlType:
		s, err := toText(v, t)
		if err != nil {
			return reflect.Value{}, err
		}
		u, err := url.Parse(s)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: parse url %q: %v", ErrConversion, s, err)
		}
		return reflect.ValueOf(*u), nil
	case uuidType:
		id, err := toUUID(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(id), nil
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		b, err := toBool(v, t)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := toInt(v, t)
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowInt(i) {
			return reflect.Value{}, conversionError(v, t, "overflows")
		}
		out.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, err := toInt(v, t)
		if err != nil {
			return reflect.Value{}, err
		}
		if t.Kind() != reflect.Uint64 && t.Kind() != reflect.Uint && i < 0 {
			return reflect.Value{}, conversionError(v, t, "is negative")
		}
		u := uint64(i)
		if out.OverflowUint(u) {
			return reflect.Value{}, conversionError(v, t, "overflows")
		}
		out.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := toFloat(v, t)
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowFloat(f) {
			return reflect.Value{}, conversionError(v, t, "overflows")
		}
		out.SetFloat(f)
	case reflect.String:
		s, err := toText(v, t)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetString(s)
	case reflect.Slice:
		b, err := toBytes(v, t)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetBytes(b)
	}
	return out, nil
}

func conversionError(v ir.Value, t reflect.Type, reason string) error {
	return fmt.Errorf("%w: %T value %v %s for %s", ErrConversion, v, v, reason, t)
}

func toInt(v ir.Value, t reflect.Type) (int64, error) {
	switch val := v.(type) {
	case ir.Int:
		return int64(val), nil
	case ir.Real:
		f := float64(val)
		if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
			return 0, conversionError(v, t, "is not integral")
		}
		return int64(f), nil
	case ir.Text:
		i, err := strconv.ParseInt(strings.TrimSpace(string(val)), 10, 64)
		if err != nil {
			return 0, conversionError(v, t, "is not an integer")
		}
		return i, nil
	}
	return 0, conversionError(v, t, "has no integer form")
}

func toFloat(v ir.Value, t reflect.Type) (float64, error) {
	switch val := v.(type) {
	case ir.Real:
		return float64(val), nil
	case ir.Int:
		return float64(val), nil
	case ir.Text:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(val)), 64)
		if err != nil {
			return 0, conversionError(v, t, "is not a number")
		}
		return f, nil
	}
	return 0, conversionError(v, t, "has no numeric form")
}

func toBool(v ir.Value, t reflect.Type) (bool, error) {
	switch val := v.(type) {
	case ir.Int:
		return val != 0, nil
	case ir.Real:
		return val != 0, nil
	case ir.Text:
		b, err := strconv.ParseBool(strings.TrimSpace(string(val)))
		if err != nil {
			return false, conversionError(v, t, "is not a boolean")
		}
		return b, nil
	}
	return false, conversionError(v, t, "has no boolean form")
}

func toText(v ir.Value, t reflect.Type) (string, error) {
	switch val := v.(type) {
	case ir.Text:
		return string(val), nil
	case ir.Int:
		return strconv.FormatInt(int64(val), 10), nil
	case ir.Real:
		return strconv.FormatFloat(float64(val), 'g', -1, 64), nil
	case ir.Blob:
		return string(val), nil
	}
	return "", conversionError(v, t, "has no text form")
}

func toBytes(v ir.Value, t reflect.Type) ([]byte, error) {
	switch val := v.(type) {
	case ir.Blob:
		out := make([]byte, len(val))
		copy(out, val)
		return out, nil
	case ir.Text:
		return []byte(val), nil
	}
	return nil, conversionError(v, t, "has no byte form")
}

func toTime(v ir.Value) (time.Time, error) {
	switch val := v.(type) {
	case ir.Text:
		tm, err := ir.ParseTime(string(val))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrConversion, err)
		}
		return tm, nil
	case ir.Int:
		return time.Unix(int64(val), 0).UTC(), nil
	}
	return time.Time{}, conversionError(v, timeType, "has no time form")
}

func toUUID(v ir.Value) (uuid.UUID, error) {
	switch val := v.(type) {
	case ir.Text:
		id, err := uuid.Parse(string(val))
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: parse uuid %q: %v", ErrConversion, string(val), err)
		}
		return id, nil
	case ir.Blob:
		id, err := uuid.FromBytes(val)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: uuid from %d bytes: %v", ErrConversion, len(val), err)
		}
		return id, nil
	}
	return uuid.Nil, conversionError(v, uuidType, "has no uuid form")
}
