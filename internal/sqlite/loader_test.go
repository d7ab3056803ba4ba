package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besttest/besttest/internal/jsonl"
	"github.com/besttest/besttest/internal/repotest"
	"github.com/besttest/besttest/pkg/types"
)

func TestImportJSONL(t *testing.T) {
	src := t.TempDir()
	files, err := jsonl.Open(src)
	require.NoError(t, err)
	require.NoError(t, files.SaveProjects([]types.Project{{ID: "p1", Name: "Web"}}))
	require.NoError(t, files.Save("p1", repotest.SampleState()))
	require.NoError(t, files.Close())

	// A stray file with a malformed line and an unknown key.
	stray := `{"key":"theme","value":"dark"}` + "\nnot json\n"
	require.NoError(t, os.WriteFile(filepath.Join(src, "p2.jsonl"), []byte(stray), 0o644))

	b := openTemp(t)
	n, err := b.ImportJSONL(src)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	projects, err := b.LoadProjects()
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Web", projects[0].Name)

	st, err := b.Load("p1")
	require.NoError(t, err)
	assert.Equal(t, 2, st.CaseCount())
	assert.Len(t, st.Plans, 1)

	empty, err := b.Load("p2")
	require.NoError(t, err)
	assert.Empty(t, empty.Modules)
}

func TestImportJSONLMissingDir(t *testing.T) {
	b := openTemp(t)
	_, err := b.ImportJSONL(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
