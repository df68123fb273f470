package queryir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowmap/internal/ir"
)

func TestValidate_Valid(t *testing.T) {
	tests := []struct {
		name string
		st   Statement
	}{
		{"create", Statement{Kind: KindCreateTable, Table: "songs", Schema: ir.Schema{{Name: "id", Class: ir.ClassInteger}}}},
		{"create explicit", Statement{Kind: KindCreateTable, Table: "songs", Schema: ir.Schema{{Name: "id", Definition: "id INTEGER"}}}},
		{"alter", Statement{Kind: KindAlterAddColumn, Table: "songs", Schema: ir.Schema{{Name: "tag", Class: ir.ClassText}}}},
		{"drop", Statement{Kind: KindDropTable, Table: "songs"}},
		{"rename", Statement{Kind: KindRenameTable, Table: "songs", NewName: "tracks"}},
		{"insert", Statement{Kind: KindInsert, Table: "songs", Columns: []string{"id"}, Values: []any{1}}},
		{"update", Statement{Kind: KindUpdate, Table: "songs", Set: []Assignment{{Column: "title", Value: "x"}}, Where: Eq("id", 1)}},
		{"update trusted", Statement{Kind: KindUpdate, Table: "songs", SetSQL: &Trusted{SQL: "plays = plays + ?", Args: []any{1}}}},
		{"delete all rows", Statement{Kind: KindDelete, Table: "songs"}},
		{"select", Statement{Kind: KindSelect, Table: "songs", Where: AllOf(Gt("id", 5), Raw("id < ?", 9)), Limit: 10}},
		{"count", Statement{Kind: KindCount, Table: "songs"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, Validate(tt.st))
		})
	}
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name    string
		st      Statement
		problem string
	}{
		{"empty table", Statement{Kind: KindDropTable, Table: " "}, "table name is empty"},
		{"create without columns", Statement{Kind: KindCreateTable, Table: "t"}, "at least one column"},
		{"duplicate column", Statement{Kind: KindCreateTable, Table: "t", Schema: ir.Schema{{Name: "a", Class: ir.ClassText}, {Name: "A", Class: ir.ClassText}}}, "declared twice"},
		{"column without class", Statement{Kind: KindCreateTable, Table: "t", Schema: ir.Schema{{Name: "a"}}}, "no storage class"},
		{"alter two columns", Statement{Kind: KindAlterAddColumn, Table: "t", Schema: ir.Schema{{Name: "a", Class: ir.ClassText}, {Name: "b", Class: ir.ClassText}}}, "exactly one column"},
		{"rename without name", Statement{Kind: KindRenameTable, Table: "t"}, "new name"},
		{"insert arity", Statement{Kind: KindInsert, Table: "t", Columns: []string{"a", "b"}, Values: []any{1}}, "2 columns but 1 values"},
		{"update without set", Statement{Kind: KindUpdate, Table: "t"}, "at least one assignment"},
		{"negative limit", Statement{Kind: KindSelect, Table: "t", Limit: -1}, "limit must not be negative"},
		{"bad operator", Statement{Kind: KindSelect, Table: "t", Where: Compare{Column: "a", Op: "~"}}, "unknown operator"},
		{"nested empty column", Statement{Kind: KindDelete, Table: "t", Where: AnyOf(Eq("a", 1), Not{Predicate: IsNull{}})}, "IS NULL has an empty column"},
		{"trusted arity", Statement{Kind: KindDelete, Table: "t", Where: Raw("a > ? AND b = '?'", 1, 2)}, "1 placeholders but 2 args"},
		{"unknown kind", Statement{Table: "t"}, "unknown statement kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.st)
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Error(), tt.problem)
		})
	}
}

func TestCountPlaceholders(t *testing.T) {
	assert.Equal(t, 0, CountPlaceholders("a = 'why?'"))
	assert.Equal(t, 2, CountPlaceholders(`a = ? AND "b?" = ?`))
	assert.Equal(t, 1, CountPlaceholders("note = 'it''s' AND id = ?"))
	assert.Equal(t, 1, CountPlaceholders("SELECT * FROM songs -- don't scan all\nWHERE id = ?"))
	assert.Equal(t, 1, CountPlaceholders("/* it's */ id = ?"))
	assert.Equal(t, 1, CountPlaceholders("-- ?\nid = ?"))
	assert.Equal(t, 1, CountPlaceholders("[we?ird] = ?"))
	assert.Equal(t, 0, CountPlaceholders("id = 1 -- trailing ?"))
	assert.Equal(t, 1, CountPlaceholders("a = ?1 OR b = ?1"))
	assert.Equal(t, 3, CountPlaceholders("a = ?2 AND b = ?"))
}
