package ir

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// StorageClass is one of the four primitive types SQLite stores natively.
type StorageClass int

const (
	// ClassInteger is a signed integer of up to 8 bytes.
	ClassInteger StorageClass = iota + 1
	// ClassReal is an 8-byte IEEE floating point number.
	ClassReal
	// ClassText is a UTF-8 string.
	ClassText
	// ClassBlob is an opaque byte sequence.
	ClassBlob
)

// String returns the SQL type name of the storage class.
func (c StorageClass) String() string {
	switch c {
	case ClassInteger:
		return "INTEGER"
	case ClassReal:
		return "REAL"
	case ClassText:
		return "TEXT"
	case ClassBlob:
		return "BLOB"
	default:
		return fmt.Sprintf("StorageClass(%d)", int(c))
	}
}

// Valid reports whether c is one of the four storage classes.
func (c StorageClass) Valid() bool {
	return c >= ClassInteger && c <= ClassBlob
}

// ParseStorageClass parses an exact storage class name (case-insensitive).
// Declared SQL types with affinity rules are handled by the introspector,
// not here.
func ParseStorageClass(s string) (StorageClass, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INTEGER":
		return ClassInteger, true
	case "REAL":
		return ClassReal, true
	case "TEXT":
		return ClassText, true
	case "BLOB":
		return ClassBlob, true
	default:
		return 0, false
	}
}

// Value is a sealed interface representing a storage value.
// Only Null, Int, Real, Text and Blob implement this.
type Value interface {
	storageValue() // Sealed - only these types implement it

	// Param returns the value as a database/sql driver argument.
	Param() any
}

// Null represents SQL NULL.
type Null struct{}

func (Null) storageValue() {}

// Param returns nil.
func (Null) Param() any { return nil }

// Int is an INTEGER storage value.
type Int int64

func (Int) storageValue() {}

// Param returns the value as int64.
func (v Int) Param() any { return int64(v) }

// Real is a REAL storage value.
type Real float64

func (Real) storageValue() {}

// Param returns the value as float64.
func (v Real) Param() any { return float64(v) }

// Text is a TEXT storage value.
type Text string

func (Text) storageValue() {}

// Param returns the value as string.
func (v Text) Param() any { return string(v) }

// Blob is a BLOB storage value.
type Blob []byte

func (Blob) storageValue() {}

// Param returns the value as []byte. A nil blob is bound as an empty blob,
// not NULL; use Null for NULL.
func (v Blob) Param() any {
	if v == nil {
		return []byte{}
	}
	return []byte(v)
}

// ClassOf returns the storage class of v, or false for Null.
func ClassOf(v Value) (StorageClass, bool) {
	switch v.(type) {
	case Int:
		return ClassInteger, true
	case Real:
		return ClassReal, true
	case Text:
		return ClassText, true
	case Blob:
		return ClassBlob, true
	default:
		return 0, false
	}
}

// IsNull reports whether v is NULL. A nil interface counts as NULL.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// Equal compares two storage values by class and content.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Real:
		bv, ok := b.(Real)
		return ok && av == bv
	case Text:
		bv, ok := b.(Text)
		return ok && av == bv
	case Blob:
		bv, ok := b.(Blob)
		return ok && bytes.Equal(av, bv)
	}
	return false
}

// FromDriver converts a value scanned by database/sql into a storage value.
//
// SQLite drivers return int64, float64, string, []byte, bool, time.Time or
// nil. Drivers that parse DATETIME-declared columns into time.Time are
// normalised back to TEXT in TimeLayout so the mapping layer sees one shape.
func FromDriver(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case int64:
		return Int(val), nil
	case int:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case bool:
		if val {
			return Int(1), nil
		}
		return Int(0), nil
	case float64:
		return Real(val), nil
	case float32:
		return Real(val), nil
	case string:
		return Text(val), nil
	case []byte:
		// database/sql reuses scan buffers; copy before retaining.
		out := make([]byte, len(val))
		copy(out, val)
		return Blob(out), nil
	case time.Time:
		return Text(FormatTime(val)), nil
	default:
		return nil, fmt.Errorf("unsupported driver value type: %T", v)
	}
}
