package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowmap/internal/ormerr"
)

type plain struct{}

func (plain) TableName() string { return "plain" }

type blank struct{}

func (blank) TableName() string { return "  " }

type full struct{}

func (full) TableName() string { return "songs" }
func (full) DatabaseName() string { return "music.sqlite" }
func (full) IgnoreKeys() []string { return []string{"cache", "dirty"} }
func (full) TableConstraints() string { return " UNIQUE(id) " }

type explicit struct{}

func (explicit) TableName() string { return "songs" }
func (explicit) ColumnDescription() string { return "id INTEGER, title TEXT" }

type conflicting struct{ explicit }

func (conflicting) IgnoreKeys() []string { return []string{"x"} }

type explicitEmptyIgnore struct{ explicit }

func (explicitEmptyIgnore) IgnoreKeys() []string { return nil }

func TestDescribe_Defaults(t *testing.T) {
	d, err := Describe(plain{})
	require.NoError(t, err)

	assert.Equal(t, "plain", d.TableName)
	assert.Equal(t, DefaultDatabaseName, d.DatabaseName)
	assert.False(t, d.Explicit())
	assert.False(t, d.Ignored("anything"))
	assert.Empty(t, d.TableConstraints)
}

func TestDescribe_AllHooks(t *testing.T) {
	d, err := Describe(full{})
	require.NoError(t, err)

	assert.Equal(t, "music.sqlite", d.DatabaseName)
	assert.True(t, d.Ignored("cache"))
	assert.True(t, d.Ignored("dirty"))
	assert.False(t, d.Ignored("title"))
	assert.Equal(t, "UNIQUE(id)", d.TableConstraints)
}

func TestDescribe_Explicit(t *testing.T) {
	d, err := Describe(explicit{})
	require.NoError(t, err)
	assert.True(t, d.Explicit())
	assert.Equal(t, "id INTEGER, title TEXT", d.ColumnDescription)
}

func TestDescribe_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		obj  any
	}{
		{"not persistable", struct{}{}},
		{"blank table name", blank{}},
		{"explicit with ignore keys", conflicting{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Describe(tt.obj)
			require.Error(t, err)
			assert.True(t, ormerr.IsConfiguration(err), "got %v", err)
		})
	}
}

func TestDescribe_ExplicitWithEmptyIgnoreList(t *testing.T) {
	_, err := Describe(explicitEmptyIgnore{})
	assert.NoError(t, err)
}
