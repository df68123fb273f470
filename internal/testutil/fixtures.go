// Package testutil holds fixtures shared by rowmap tests.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/rowmap/internal/paths"
	"github.com/roach88/rowmap/internal/store"
)

// MusicDB is the database file the song fixtures live in.
const MusicDB = "music.sqlite"

// Song is the canonical automatic-mode fixture.
type Song struct {
	ID     int64   `db:"id,unique"`
	Title  string  `db:"title"`
	Rating float64 `db:"rating"`
}

func (Song) TableName() string    { return "songs" }
func (Song) DatabaseName() string { return MusicDB }

// TaggedSong maps to the same table as Song with one more column.
type TaggedSong struct {
	ID     int64   `db:"id,unique"`
	Title  string  `db:"title"`
	Rating float64 `db:"rating"`
	Tag    *string `db:"tag"`
}

func (TaggedSong) TableName() string    { return "songs" }
func (TaggedSong) DatabaseName() string { return MusicDB }

// Track exercises the TEXT-encoded types, a BLOB and an ignored field.
type Track struct {
	UUID    uuid.UUID `db:"uuid,pk"`
	AddedAt time.Time `db:"added_at"`
	Length  *int      `db:"length"`
	Art     []byte    `db:"art"`
	Genres  []string  // no storage class: skipped
	Cache   string    // ignored
}

func (Track) TableName() string    { return "tracks" }
func (Track) DatabaseName() string { return MusicDB }
func (Track) IgnoreKeys() []string { return []string{"Cache"} }

// Album uses an explicit column description.
type Album struct {
	ID    int64
	Title string
	Year  int
}

func (Album) TableName() string    { return "albums" }
func (Album) DatabaseName() string { return MusicDB }
func (Album) ColumnDescription() string {
	return "id INTEGER PRIMARY KEY, title TEXT NOT NULL, year INTEGER, notes TEXT"
}

// Playlist carries a table constraint instead of column tags.
type Playlist struct {
	Owner string `db:"owner"`
	Name  string `db:"name"`
	Size  int    `db:"size"`
}

func (Playlist) TableName() string        { return "playlists" }
func (Playlist) DatabaseName() string     { return MusicDB }
func (Playlist) TableConstraints() string { return "UNIQUE(owner, name)" }

// NewRegistry returns a store registry rooted in a fresh temp directory and
// closed at test cleanup.
func NewRegistry(t *testing.T) *store.Registry {
	t.Helper()
	r := store.NewRegistry(paths.New(t.TempDir()), store.DefaultOptions())
	t.Cleanup(func() { r.Close() })
	return r
}
