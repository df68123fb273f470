package queryir

// Predicate is a row filter.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Compare: column <op> value
//   - In: column IN (values...)
//   - IsNull: column IS [NOT] NULL
//   - And, Or: conjunction and disjunction
//   - Not: negation
//   - Trusted: raw SQL fragment with positional arguments
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Op is a comparison operator.
type Op string

const (
	OpEq   Op = "="
	OpNe   Op = "<>"
	OpLt   Op = "<"
	OpLe   Op = "<="
	OpGt   Op = ">"
	OpGe   Op = ">="
	OpLike Op = "LIKE"
)

// Valid reports whether op is a known operator.
func (op Op) Valid() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpLike:
		return true
	}
	return false
}

// Compare is a column-versus-value predicate.
//
// Value is any Go value the coercion table accepts, or an ir.Value. It is
// bound as a parameter. A nil Value compares against NULL, which is never
// true in SQL; use IsNull instead.
//
// Example:
//
//	Compare{Column: "plays", Op: OpGt, Value: 10}
//
// Translates to SQL:
//
//	plays > ?
type Compare struct {
	Column string
	Op     Op
	Value  any
}

func (Compare) predicateNode() {}

// Eq returns column = value.
func Eq(column string, value any) Compare { return Compare{Column: column, Op: OpEq, Value: value} }

// Ne returns column <> value.
func Ne(column string, value any) Compare { return Compare{Column: column, Op: OpNe, Value: value} }

// Lt returns column < value.
func Lt(column string, value any) Compare { return Compare{Column: column, Op: OpLt, Value: value} }

// Le returns column <= value.
func Le(column string, value any) Compare { return Compare{Column: column, Op: OpLe, Value: value} }

// Gt returns column > value.
func Gt(column string, value any) Compare { return Compare{Column: column, Op: OpGt, Value: value} }

// Ge returns column >= value.
func Ge(column string, value any) Compare { return Compare{Column: column, Op: OpGe, Value: value} }

// Like returns column LIKE pattern.
func Like(column, pattern string) Compare {
	return Compare{Column: column, Op: OpLike, Value: pattern}
}

// In matches rows whose column equals any of Values. An empty Values list
// matches nothing.
type In struct {
	Column string
	Values []any
}

func (In) predicateNode() {}

// IsNull matches rows whose column is NULL, or NOT NULL when Not is set.
type IsNull struct {
	Column string
	Not    bool
}

func (IsNull) predicateNode() {}

// And is a conjunction. Empty Predicates is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is a disjunction. Empty Predicates is always false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// Trusted is a raw SQL fragment supplied by the caller, e.g. a WHERE
// condition or a SET list. SQL is emitted verbatim; Args are bound to its
// `?` placeholders in order.
type Trusted struct {
	SQL  string
	Args []any
}

func (Trusted) predicateNode() {}

// Raw returns a Trusted fragment.
func Raw(sql string, args ...any) Trusted {
	return Trusted{SQL: sql, Args: args}
}

// AllOf returns the conjunction of preds.
func AllOf(preds ...Predicate) And { return And{Predicates: preds} }

// AnyOf returns the disjunction of preds.
func AnyOf(preds ...Predicate) Or { return Or{Predicates: preds} }
