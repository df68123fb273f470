package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/rowmap/internal/coerce"
	"github.com/roach88/rowmap/internal/ir"
	"github.com/roach88/rowmap/internal/queryir"
)

// Compile converts a statement to parameterized SQL.
// Returns (sql, params, error) tuple.
//
// The statement is validated first. All values are parameterized (never
// interpolated); only queryir.Trusted fragments reach the SQL text verbatim.
func Compile(st queryir.Statement) (string, []any, error) {
	if err := queryir.Validate(st); err != nil {
		return "", nil, err
	}

	switch st.Kind {
	case queryir.KindCreateTable:
		return CreateTable(st.Table, st.Schema, st.Constraints), nil, nil
	case queryir.KindAlterAddColumn:
		return AlterTableAddColumn(st.Table, st.Schema[0]), nil, nil
	case queryir.KindDropTable:
		return DropTable(st.Table), nil, nil
	case queryir.KindRenameTable:
		return RenameTable(st.Table, st.NewName), nil, nil
	case queryir.KindInsert, queryir.KindInsertIgnore, queryir.KindInsertReplace:
		params, err := toParams(st.Values)
		if err != nil {
			return "", nil, fmt.Errorf("compile %s: %w", st.Kind, err)
		}
		return insert(conflictClause[st.Kind], st.Table, st.Columns), params, nil
	case queryir.KindDelete:
		return Delete(st.Table, st.Where)
	case queryir.KindUpdate:
		if st.SetSQL != nil {
			return UpdateTrusted(st.Table, *st.SetSQL, st.Where)
		}
		return Update(st.Table, st.Set, st.Where)
	case queryir.KindSelect:
		return Select(SelectOptions{
			Table:      st.Table,
			Columns:    st.Columns,
			Where:      st.Where,
			OrderKey:   st.OrderKey,
			Descending: st.Descending,
			Limit:      st.Limit,
		})
	case queryir.KindCount:
		return Count(st.Table, st.Where)
	case queryir.KindTableExists:
		sql, params := TableExists(st.Table)
		return sql, params, nil
	case queryir.KindTableInfo:
		return TableInfo(st.Table), nil, nil
	default:
		return "", nil, fmt.Errorf("unsupported statement kind: %s", st.Kind)
	}
}

// CreateTable renders CREATE TABLE IF NOT EXISTS.
//
// Columns with a Definition are emitted verbatim; the rest render as
// `name CLASS [constraints]`. Table constraints follow the columns.
func CreateTable(table string, schema ir.Schema, constraints []string) string {
	parts := make([]string, 0, len(schema)+len(constraints))
	for _, c := range schema {
		parts = append(parts, ColumnDefinition(c))
	}
	for _, c := range constraints {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", Quote(table), strings.Join(parts, ", "))
}

// ColumnDefinition renders one column of CREATE TABLE.
func ColumnDefinition(c ir.Column) string {
	if c.Definition != "" {
		return c.Definition
	}
	def := Quote(c.Name) + " " + c.Class.String()
	if len(c.Constraints) > 0 {
		def += " " + strings.Join(c.Constraints, " ")
	}
	return def
}

// AlterTableAddColumn renders ALTER TABLE ... ADD COLUMN name CLASS.
// Constraints are not carried over; SQLite rejects most of them on ADD
// COLUMN.
func AlterTableAddColumn(table string, c ir.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", Quote(table), Quote(c.Name), c.Class)
}

// DropTable renders DROP TABLE IF EXISTS.
func DropTable(table string) string {
	return "DROP TABLE IF EXISTS " + Quote(table)
}

// RenameTable renders ALTER TABLE ... RENAME TO.
func RenameTable(table, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", Quote(table), Quote(newName))
}

var conflictClause = map[queryir.Kind]string{
	queryir.KindInsert:        "INSERT INTO",
	queryir.KindInsertIgnore:  "INSERT OR IGNORE INTO",
	queryir.KindInsertReplace: "INSERT OR REPLACE INTO",
}

// Insert renders INSERT INTO with one placeholder per column.
func Insert(table string, columns []string) string {
	return insert(conflictClause[queryir.KindInsert], table, columns)
}

// InsertIgnore renders INSERT OR IGNORE INTO.
func InsertIgnore(table string, columns []string) string {
	return insert(conflictClause[queryir.KindInsertIgnore], table, columns)
}

// InsertReplace renders INSERT OR REPLACE INTO.
func InsertReplace(table string, columns []string) string {
	return insert(conflictClause[queryir.KindInsertReplace], table, columns)
}

func insert(verb, table string, columns []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("%s %s (%s) VALUES (%s)", verb, Quote(table), quoteAll(columns), placeholders)
}

// Delete renders DELETE FROM with an optional WHERE. A nil predicate deletes
// every row.
func Delete(table string, where queryir.Predicate) (string, []any, error) {
	whereSQL, params, err := whereClause(where)
	if err != nil {
		return "", nil, err
	}
	return "DELETE FROM " + Quote(table) + whereSQL, params, nil
}

// Update renders UPDATE ... SET col = ?, ... with an optional WHERE.
func Update(table string, set []queryir.Assignment, where queryir.Predicate) (string, []any, error) {
	parts := make([]string, len(set))
	params := make([]any, 0, len(set))
	for i, a := range set {
		p, err := toParam(a.Value)
		if err != nil {
			return "", nil, fmt.Errorf("compile set %s: %w", a.Column, err)
		}
		parts[i] = Quote(a.Column) + " = ?"
		params = append(params, p)
	}

	whereSQL, whereParams, err := whereClause(where)
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("UPDATE %s SET %s%s", Quote(table), strings.Join(parts, ", "), whereSQL)
	return sql, append(params, whereParams...), nil
}

// UpdateTrusted renders UPDATE with a caller-supplied SET list.
func UpdateTrusted(table string, set queryir.Trusted, where queryir.Predicate) (string, []any, error) {
	params, err := toParams(set.Args)
	if err != nil {
		return "", nil, fmt.Errorf("compile set: %w", err)
	}
	whereSQL, whereParams, err := whereClause(where)
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("UPDATE %s SET %s%s", Quote(table), strings.TrimSpace(set.SQL), whereSQL)
	return sql, append(params, whereParams...), nil
}

// SelectOptions describes a SELECT.
type SelectOptions struct {
	Table      string
	Columns    []string // empty selects *
	Where      queryir.Predicate
	OrderKey   string // empty emits no ORDER BY
	Descending bool
	Limit      int // 0 emits no LIMIT
}

// Select renders SELECT. ORDER BY is emitted only when OrderKey is set and
// LIMIT only when Limit > 0.
func Select(o SelectOptions) (string, []any, error) {
	cols := "*"
	if len(o.Columns) > 0 {
		cols = quoteAll(o.Columns)
	}

	whereSQL, params, err := whereClause(o.Where)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s%s", cols, Quote(o.Table), whereSQL)
	if o.OrderKey != "" {
		dir := "ASC"
		if o.Descending {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", Quote(o.OrderKey), dir)
	}
	if o.Limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(o.Limit))
	}
	return b.String(), params, nil
}

// Count renders SELECT COUNT(*) with an optional WHERE.
func Count(table string, where queryir.Predicate) (string, []any, error) {
	whereSQL, params, err := whereClause(where)
	if err != nil {
		return "", nil, err
	}
	return "SELECT COUNT(*) FROM " + Quote(table) + whereSQL, params, nil
}

// TableExists renders a sqlite_master lookup returning one row with the
// number of tables named table (0 or 1).
func TableExists(table string) (string, []any) {
	return "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", []any{table}
}

// TableInfo renders PRAGMA table_info for table.
func TableInfo(table string) string {
	return fmt.Sprintf("PRAGMA table_info(%s)", Quote(table))
}

// ListTables renders a query for all user tables, ordered by name.
func ListTables() string {
	return "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
}

func whereClause(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "", nil, nil
	}
	sql, params, err := compilePredicate(p)
	if err != nil {
		return "", nil, fmt.Errorf("compile where: %w", err)
	}
	return " WHERE " + sql, params, nil
}

// compilePredicate compiles a predicate to a WHERE fragment.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Compare:
		param, err := toParam(pred.Value)
		if err != nil {
			return "", nil, fmt.Errorf("column %s: %w", pred.Column, err)
		}
		return fmt.Sprintf("%s %s ?", Quote(pred.Column), pred.Op), []any{param}, nil
	case queryir.In:
		if len(pred.Values) == 0 {
			return "1 = 0", nil, nil
		}
		params, err := toParams(pred.Values)
		if err != nil {
			return "", nil, fmt.Errorf("column %s: %w", pred.Column, err)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
		return fmt.Sprintf("%s IN (%s)", Quote(pred.Column), placeholders), params, nil
	case queryir.IsNull:
		if pred.Not {
			return Quote(pred.Column) + " IS NOT NULL", nil, nil
		}
		return Quote(pred.Column) + " IS NULL", nil, nil
	case queryir.And:
		return compileJunction(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return compileJunction(pred.Predicates, " OR ", "1 = 0")
	case queryir.Not:
		sql, params, err := compilePredicate(pred.Predicate)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", params, nil
	case queryir.Trusted:
		params, err := toParams(pred.Args)
		if err != nil {
			return "", nil, err
		}
		return strings.TrimSpace(pred.SQL), params, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileJunction(preds []queryir.Predicate, sep, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}

	parts := make([]string, 0, len(preds))
	var params []any
	for _, sub := range preds {
		sql, subParams, err := compilePredicate(sub)
		if err != nil {
			return "", nil, err
		}
		if needsParens(sub) && len(preds) > 1 {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, subParams...)
	}
	return strings.Join(parts, sep), params, nil
}

func needsParens(p queryir.Predicate) bool {
	switch p.(type) {
	case queryir.And, queryir.Or, queryir.Trusted:
		return true
	}
	return false
}

// Params converts values to database/sql arguments with the same coercion
// used for compiled statements.
func Params(values []any) ([]any, error) {
	return toParams(values)
}

func toParams(values []any) ([]any, error) {
	params := make([]any, len(values))
	for i, v := range values {
		p, err := toParam(v)
		if err != nil {
			return nil, err
		}
		params[i] = p
	}
	return params, nil
}

// toParam converts a Go or storage value to a database/sql argument.
func toParam(v any) (any, error) {
	sv, err := coerce.ToStorage(v)
	if err != nil {
		return nil, err
	}
	return sv.Param(), nil
}
