package evidence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besttest/besttest/pkg/types"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestOpenCreatesDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data", DirName)
	d, err := Open(root)
	require.NoError(t, err)
	assert.DirExists(t, root)
	assert.Equal(t, root, d.Root())

	_, err = Open(" ")
	assert.Error(t, err)
}

func TestListImagesOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "login.png", "png")
	writeFile(t, root, "run-1/cart.JPG", "jpeg")
	writeFile(t, root, "output.xml", "<robot/>")
	d, err := Open(root)
	require.NoError(t, err)

	files, err := d.List()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "login.png", files[0].Path)
	assert.Equal(t, int64(3), files[0].Size)
	assert.Equal(t, "run-1/cart.JPG", files[1].Path)
	assert.Equal(t, "cart.JPG", files[1].Name)
}

func TestListEmpty(t *testing.T) {
	d, err := Open(t.TempDir())
	require.NoError(t, err)
	files, err := d.List()
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestDelete(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.png", "x")
	writeFile(t, root, "sub/b.png", "x")
	d, err := Open(root)
	require.NoError(t, err)

	changed, err := d.Delete("a.png")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NoFileExists(t, filepath.Join(root, "a.png"))

	changed, err = d.Delete("a.png")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = d.Delete("sub/b.png")
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = d.Delete("sub")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestRejectsPathsOutsideDirectory(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, DirName)
	writeFile(t, parent, "secret.png", "x")
	d, err := Open(root)
	require.NoError(t, err)

	for _, name := range []string{"", "../secret.png", "/etc/passwd", "a/../../secret.png"} {
		_, err := d.Delete(name)
		assert.ErrorIs(t, err, ErrInvalidPath, name)
		_, _, err = d.Lookup(name)
		assert.ErrorIs(t, err, ErrInvalidPath, name)
	}
	assert.FileExists(t, filepath.Join(parent, "secret.png"))
}

func TestForResult(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b-fail.png", "png")
	d, err := Open(root)
	require.NoError(t, err)

	r := types.TestResult{Details: []types.ResultDetail{
		{Key: "ka", ID: "TC_1", Result: types.VerdictPassed},
		{Key: "kb", ID: "TC_2", Result: types.VerdictFailed, Screenshots: []string{"b-fail.png", "gone.png", "../x.png"}},
	}}
	got, err := d.ForResult(r)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "TC_2", got[0].CaseID)
	require.NotNil(t, got[0].File)
	assert.Equal(t, "b-fail.png", got[0].File.Path)
	assert.Nil(t, got[1].File, "deleted file is reported without details")
	assert.Nil(t, got[2].File)
}
