package queryir

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError lists every structural problem found in a statement.
type ValidationError struct {
	Kind     Kind
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s statement: %s", e.Kind, strings.Join(e.Problems, "; "))
}

// Validate checks that a statement carries what its Kind needs.
//
// It does not check names against a live schema; that is the migrator's
// job. A nil Where is valid for every kind.
//
// Validate is a pure function with no side effects.
func Validate(st Statement) error {
	v := &validator{}
	v.validateStatement(st)
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Kind: st.Kind, Problems: v.problems}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateStatement(st Statement) {
	if strings.TrimSpace(st.Table) == "" {
		v.addProblem("table name is empty")
	}

	switch st.Kind {
	case KindCreateTable:
		if len(st.Schema) == 0 {
			v.addProblem("create table needs at least one column")
		}
		v.validateSchemaNames(st)
	case KindAlterAddColumn:
		if len(st.Schema) != 1 {
			v.addProblem("alter table adds exactly one column, got %d", len(st.Schema))
		}
		v.validateSchemaNames(st)
	case KindRenameTable:
		if strings.TrimSpace(st.NewName) == "" {
			v.addProblem("rename table needs a new name")
		}
	case KindInsert, KindInsertIgnore, KindInsertReplace:
		if len(st.Columns) == 0 {
			v.addProblem("insert needs at least one column")
		}
		if len(st.Columns) != len(st.Values) {
			v.addProblem("insert has %d columns but %d values", len(st.Columns), len(st.Values))
		}
		v.validateNames("column", st.Columns)
	case KindUpdate:
		if len(st.Set) == 0 && st.SetSQL == nil {
			v.addProblem("update needs at least one assignment")
		}
		if len(st.Set) > 0 && st.SetSQL != nil {
			v.addProblem("update takes assignments or a trusted SET list, not both")
		}
		for _, a := range st.Set {
			if strings.TrimSpace(a.Column) == "" {
				v.addProblem("update assignment has an empty column")
			}
		}
		if st.SetSQL != nil {
			v.validateTrusted(*st.SetSQL)
		}
	case KindSelect:
		if st.Limit < 0 {
			v.addProblem("limit must not be negative, got %d", st.Limit)
		}
		v.validateNames("column", st.Columns)
	case KindDropTable, KindDelete, KindCount, KindTableExists, KindTableInfo:
	default:
		v.addProblem("unknown statement kind %d", int(st.Kind))
	}

	if st.Where != nil {
		v.validatePredicate(st.Where)
	}
}

func (v *validator) validateSchemaNames(st Statement) {
	seen := make(map[string]bool, len(st.Schema))
	for _, c := range st.Schema {
		key := strings.ToLower(c.Name)
		switch {
		case strings.TrimSpace(c.Name) == "":
			v.addProblem("column name is empty")
		case seen[key]:
			v.addProblem("column %q declared twice", c.Name)
		case c.Definition == "" && !c.Class.Valid():
			v.addProblem("column %q has no storage class", c.Name)
		}
		seen[key] = true
	}
}

func (v *validator) validateNames(what string, names []string) {
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			v.addProblem("%s name is empty", what)
		}
	}
}

// validatePredicate recursively validates a predicate node.
func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Compare:
		if strings.TrimSpace(pred.Column) == "" {
			v.addProblem("comparison has an empty column")
		}
		if !pred.Op.Valid() {
			v.addProblem("unknown operator %q", pred.Op)
		}
	case In:
		if strings.TrimSpace(pred.Column) == "" {
			v.addProblem("IN has an empty column")
		}
	case IsNull:
		if strings.TrimSpace(pred.Column) == "" {
			v.addProblem("IS NULL has an empty column")
		}
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case Or:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case Not:
		if pred.Predicate == nil {
			v.addProblem("NOT has no operand")
			return
		}
		v.validatePredicate(pred.Predicate)
	case Trusted:
		v.validateTrusted(pred)
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) validateTrusted(t Trusted) {
	if strings.TrimSpace(t.SQL) == "" {
		v.addProblem("trusted fragment is empty")
		return
	}
	if n := CountPlaceholders(t.SQL); n != len(t.Args) {
		v.addProblem("trusted fragment has %d placeholders but %d args", n, len(t.Args))
	}
}

// CountPlaceholders reports how many arguments sql binds. Quoted strings,
// identifiers and comments are skipped. A numbered `?NNN` parameter raises
// the count to NNN and a bare `?` takes the next number, as SQLite does.
func CountPlaceholders(sql string) int {
	highest := 0
	for i := 0; i < len(sql); i++ {
		switch c := sql[i]; {
		case c == '\'' || c == '"' || c == '`':
			i = skipPast(sql, i+1, string(c))
		case c == '[':
			i = skipPast(sql, i+1, "]")
		case c == '-' && strings.HasPrefix(sql[i:], "--"):
			i = skipPast(sql, i+2, "\n")
		case c == '/' && strings.HasPrefix(sql[i:], "/*"):
			i = skipPast(sql, i+2, "*/")
		case c == '?':
			j := i + 1
			for j < len(sql) && sql[j] >= '0' && sql[j] <= '9' {
				j++
			}
			if j == i+1 {
				highest++
				continue
			}
			if n, err := strconv.Atoi(sql[i+1 : j]); err == nil && n > highest {
				highest = n
			}
			i = j - 1
		}
	}
	return highest
}

// skipPast returns the index of the last byte of the first end at or after
// from, or the final index when end never appears.
func skipPast(sql string, from int, end string) int {
	k := strings.Index(sql[from:], end)
	if k < 0 {
		return len(sql) - 1
	}
	return from + k + len(end) - 1
}
