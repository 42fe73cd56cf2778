package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestDiscoverFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.png"))
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "nested", "c.png"))

	files, err := Discover([]string{dir}, false, nil, nil)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.jpg", filepath.Base(files[0]))
	assert.Equal(t, "b.png", filepath.Base(files[1]))
}

func TestDiscoverRecursive(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.png"))
	touch(t, filepath.Join(dir, "nested", "deep", "b.png"))

	files, err := Discover([]string{dir}, true, nil, nil)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestDiscoverIncludeExclude(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "order_1.png"))
	touch(t, filepath.Join(dir, "order_2.png"))
	touch(t, filepath.Join(dir, "screenshot.png"))

	files, err := Discover([]string{dir}, false, []string{"order_*.png"}, nil)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	files, err = Discover([]string{dir}, false, nil, []string{"order_*"})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "screenshot.png", filepath.Base(files[0]))
}

func TestDiscoverExplicitFile(t *testing.T) {
	dir := t.TempDir()
	img := touch(t, filepath.Join(dir, "a.png"))
	txt := touch(t, filepath.Join(dir, "a.txt"))

	files, err := Discover([]string{img, txt}, false, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{img}, files)
}

func TestDiscoverMissingPath(t *testing.T) {
	_, err := Discover([]string{filepath.Join(t.TempDir(), "gone")}, false, nil, nil)
	assert.Error(t, err)
}
