package queryir

import "github.com/roach88/rowmap/internal/ir"

// Kind identifies the SQL operation of a Statement.
type Kind int

const (
	KindCreateTable Kind = iota + 1
	KindAlterAddColumn
	KindDropTable
	KindRenameTable
	KindInsert
	KindInsertIgnore
	KindInsertReplace
	KindDelete
	KindUpdate
	KindSelect
	KindCount
	KindTableExists
	KindTableInfo
)

var kindNames = map[Kind]string{
	KindCreateTable:    "create_table",
	KindAlterAddColumn: "alter_add_column",
	KindDropTable:      "drop_table",
	KindRenameTable:    "rename_table",
	KindInsert:         "insert",
	KindInsertIgnore:   "insert_ignore",
	KindInsertReplace:  "insert_replace",
	KindDelete:         "delete",
	KindUpdate:         "update",
	KindSelect:         "select",
	KindCount:          "count",
	KindTableExists:    "table_exists",
	KindTableInfo:      "table_info",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// IsInsert reports whether k is one of the three insert forms.
func (k Kind) IsInsert() bool {
	return k == KindInsert || k == KindInsertIgnore || k == KindInsertReplace
}

// Assignment is one `column = ?` entry of an UPDATE.
type Assignment struct {
	Column string
	Value  any
}

// Statement is one SQL operation. Fields not used by Kind are ignored.
//
//	Kind                 uses
//	create_table         Table, Schema, Constraints
//	alter_add_column     Table, Schema (exactly one column)
//	drop_table           Table
//	rename_table         Table, NewName
//	insert*              Table, Columns, Values
//	update               Table, Set or SetSQL, Where
//	delete               Table, Where
//	select               Table, Columns (empty = *), Where, OrderKey,
//	                     Descending, Limit
//	count                Table, Where
//	table_exists         Table
//	table_info           Table
type Statement struct {
	Kind  Kind
	Table string

	Schema      ir.Schema
	Constraints []string

	Columns []string
	Values  []any

	Set    []Assignment
	SetSQL *Trusted

	Where Predicate

	OrderKey   string
	Descending bool
	Limit      int

	NewName string
}
