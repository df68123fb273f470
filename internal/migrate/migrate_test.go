package migrate

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowmap/internal/ir"
	"github.com/roach88/rowmap/internal/ormerr"
	"github.com/roach88/rowmap/internal/store"
)

var songSchema = ir.Schema{
	{Name: "id", Class: ir.ClassInteger, Constraints: []string{"UNIQUE"}},
	{Name: "title", Class: ir.ClassText},
	{Name: "artist", Class: ir.ClassText},
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "music.sqlite"), store.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPlan(t *testing.T) {
	missing := Plan([]string{"ID", "title"}, songSchema)
	require.Len(t, missing, 1)
	assert.Equal(t, "artist", missing[0].Name)

	assert.Empty(t, Plan([]string{"id", "title", "artist", "extra"}, songSchema),
		"live-only columns are not part of the plan")
	assert.Len(t, Plan(nil, songSchema), 3)
}

func TestStatements(t *testing.T) {
	create := Statements("songs", false, nil, songSchema, []string{"UNIQUE(title, artist)"})
	assert.Equal(t, []string{
		"CREATE TABLE IF NOT EXISTS songs (id INTEGER UNIQUE, title TEXT, artist TEXT, UNIQUE(title, artist))",
	}, create)

	alter := Statements("songs", true, []string{"id"}, songSchema, nil)
	assert.Equal(t, []string{
		"ALTER TABLE songs ADD COLUMN title TEXT",
		"ALTER TABLE songs ADD COLUMN artist TEXT",
	}, alter)

	assert.Empty(t, Statements("songs", true, songSchema.Names(), songSchema, nil))
}

func TestReconcile_CreateThenIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	res, err := Reconcile(ctx, s, "songs", songSchema, nil)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.Changed())

	exists, cols, err := Inspect(ctx, s, "songs")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, []string{"id", "title", "artist"}, cols)

	res, err = Reconcile(ctx, s, "songs", songSchema, nil)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.False(t, res.Changed(), "second run must execute nothing")
}

func TestReconcile_AddsColumnKeepingRows(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := Reconcile(ctx, s, "songs", songSchema, nil)
	require.NoError(t, err)
	_, err = s.Exec(ctx, "INSERT INTO songs (id, title, artist) VALUES (?, ?, ?)", 1, "Blue", "Joni")
	require.NoError(t, err)

	withTag := append(append(ir.Schema(nil), songSchema...), ir.Column{Name: "tag", Class: ir.ClassText})
	res, err := Reconcile(ctx, s, "songs", withTag, nil)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, []string{"tag"}, res.Added)
	assert.Equal(t, []string{"ALTER TABLE songs ADD COLUMN tag TEXT"}, res.Statements)

	rows, err := s.Query(ctx, "SELECT tag FROM songs WHERE id = ?", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	tag, ok := rows[0].Get("tag")
	require.True(t, ok)
	assert.True(t, ir.IsNull(tag), "existing rows read NULL for the new column")
}

func TestReconcile_NeverDropsLiveColumns(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := Reconcile(ctx, s, "songs", songSchema, nil)
	require.NoError(t, err)

	res, err := Reconcile(ctx, s, "songs", songSchema[:1], nil)
	require.NoError(t, err)
	assert.False(t, res.Changed())

	cols, err := LiveColumns(ctx, s, "songs")
	require.NoError(t, err)
	assert.Len(t, cols, 3)
}

// failingQueue wraps a store and fails the nth ALTER statement.
type failingQueue struct {
	Queue
	failOn int
	alters int
}

func (q *failingQueue) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	if strings.HasPrefix(sql, "ALTER TABLE") {
		q.alters++
		if q.alters == q.failOn {
			return 0, errors.New("disk I/O error")
		}
	}
	return q.Queue.Exec(ctx, sql, args...)
}

func TestReconcile_PartialFailure(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := Reconcile(ctx, s, "songs", songSchema[:1], nil)
	require.NoError(t, err)

	q := &failingQueue{Queue: s, failOn: 2}
	res, err := Reconcile(ctx, q, "songs", songSchema, nil)
	require.Error(t, err)
	assert.True(t, ormerr.IsMigrationPartial(err))

	var oe *ormerr.Error
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "artist", oe.Column)
	assert.Equal(t, []string{"title"}, oe.Applied)
	assert.Equal(t, []string{"title"}, res.Added)

	cols, err := LiveColumns(ctx, s, "songs")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title"}, cols, "applied ALTERs are not rolled back")

	// A later run picks up where the failure left off.
	res, err = Reconcile(ctx, s, "songs", songSchema, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"artist"}, res.Added)
}

func TestInspect_MissingTable(t *testing.T) {
	exists, cols, err := Inspect(context.Background(), openStore(t), "nope")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Nil(t, cols)
}
