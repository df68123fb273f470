package ormerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "table and column",
			err:  SchemaMismatch("songs", "tag", "column missing from row"),
			want: "SCHEMA_MISMATCH: column missing from row (table=songs, column=tag)",
		},
		{
			name: "table only",
			err:  Configuration("songs", "both hooks set"),
			want: "CONFIGURATION: both hooks set (table=songs)",
		},
		{
			name: "column only",
			err:  UnsupportedType("tags", "unsupported type %s", "[]string"),
			want: "UNSUPPORTED_ATTRIBUTE_TYPE: unsupported type []string (column=tags)",
		},
		{
			name: "with cause",
			err:  Execution("songs", "insert", errors.New("disk full")),
			want: "EXECUTION_FAILURE: insert (table=songs): disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIsHelpers_SeeThroughWrapping(t *testing.T) {
	cause := errors.New("boom")
	wrapped := fmt.Errorf("save song: %w", Execution("songs", "insert", cause))

	assert.True(t, IsExecution(wrapped))
	assert.False(t, IsConfiguration(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, CodeExecution, CodeOf(wrapped))
	assert.Equal(t, Code(""), CodeOf(cause))
}

func TestMigrationPartial(t *testing.T) {
	err := MigrationPartial("songs", "b", []string{"a"}, errors.New("locked"))

	assert.True(t, IsMigrationPartial(err))
	assert.Equal(t, []string{"a"}, err.Applied)
	assert.Contains(t, err.Error(), "after 1 applied")
}

func TestIsHelpers_AllCodes(t *testing.T) {
	assert.True(t, IsConfiguration(Configuration("t", "x")))
	assert.True(t, IsUnsupportedType(UnsupportedType("c", "x")))
	assert.True(t, IsSchemaMismatch(SchemaMismatch("t", "c", "x")))
	assert.False(t, IsSchemaMismatch(nil))
}
