package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	p := New(dir)

	path, err := p.ResolvePath("user_db.sqlite")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "user_db.sqlite"), path)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestResolvePath_RejectsBadNames(t *testing.T) {
	p := New(t.TempDir())
	for _, name := range []string{"", "  ", "..", "a/b.sqlite", `a\b`} {
		_, err := p.ResolvePath(name)
		assert.Error(t, err, "name %q", name)
	}

	_, err := New("").ResolvePath("x.sqlite")
	assert.Error(t, err)
}

func TestDelete_RemovesSideFilesAndEmptyDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	p := New(dir)
	path, err := p.ResolvePath("music.sqlite")
	require.NoError(t, err)

	for _, f := range []string{path, path + "-wal", path + "-shm"} {
		require.NoError(t, os.WriteFile(f, []byte("x"), 0600))
	}

	require.NoError(t, p.Delete(path))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "empty directory should be removed")
}

func TestDelete_KeepsNonEmptyDir(t *testing.T) {
	dir := t.TempDir()
	p := New(dir)
	a, err := p.ResolvePath("a.sqlite")
	require.NoError(t, err)
	b, err := p.ResolvePath("b.sqlite")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(a, nil, 0600))
	require.NoError(t, os.WriteFile(b, nil, 0600))

	require.NoError(t, p.Delete(a))

	_, err = os.Stat(b)
	assert.NoError(t, err)
	_, err = os.Stat(a)
	assert.True(t, os.IsNotExist(err))
}

func TestDelete_MissingFileIsNotAnError(t *testing.T) {
	p := New(t.TempDir())
	assert.NoError(t, p.Delete(filepath.Join(p.Dir, "never.sqlite")))
}
