package jsonl

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besttest/besttest/internal/repotest"
	"github.com/besttest/besttest/pkg/types"
)

func TestBackendContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) types.Repository {
		b, err := Open(t.TempDir())
		require.NoError(t, err)
		t.Cleanup(func() { b.Close() })
		return b
	})
}

func TestReadJSONLSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ns.jsonl")
	content := `{"key":"a","value":1}` + "\n\nnot json\n" + `{"key":"b","value":2}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lines, err := ReadJSONL(path)
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	recs := DecodeRecords(lines)
	assert.Contains(t, recs, "a")
	assert.Contains(t, recs, "b")
}

func TestWriteJSONLLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ns.jsonl")
	recs := []json.RawMessage{json.RawMessage(`{"key":"x"}`)}

	require.NoError(t, WriteJSONL(path, recs))
	require.NoError(t, WriteJSONL(path, recs))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ns.jsonl", entries[0].Name())
}

func TestSaveWritesOneLinePerKey(t *testing.T) {
	dir := t.TempDir()
	b, err := Open(dir)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Save("p1", repotest.SampleState()))

	data, err := os.ReadFile(NamespacePath(dir, "p1"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"key":"testModules"`)
	assert.Contains(t, lines[1], `"key":"testPlans"`)
	assert.Contains(t, lines[2], `"key":"testResults"`)
}

func TestRejectsPathLikeProjectIDs(t *testing.T) {
	b, err := Open(t.TempDir())
	require.NoError(t, err)
	defer b.Close()

	for _, id := range []string{"", "..", "a/b", `a\b`} {
		assert.ErrorIs(t, b.Save(id, types.State{}), types.ErrInvalidID, id)
		_, err := b.Load(id)
		assert.ErrorIs(t, err, types.ErrInvalidID, id)
	}
}

func TestNamespacesExcludesGlobal(t *testing.T) {
	b, err := Open(t.TempDir())
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.SaveProjects([]types.Project{{ID: "p1"}}))
	require.NoError(t, b.Save("p1", types.State{}))
	require.NoError(t, b.Save("p2", types.State{}))

	ns, err := b.Namespaces()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p2"}, ns)
}
