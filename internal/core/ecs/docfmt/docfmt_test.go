package docfmt

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWalkFilesRecursesAndSorts(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "a.json"), []byte("{}"), 0o644))

	files, err := WalkFiles(root)
	require.NoError(t, err)
	require.Len(t, files, 2)
}

func TestWalkFilesMissingRootIsEmpty(t *testing.T) {
	files, err := WalkFiles(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestLoadJSONAndYAML(t *testing.T) {
	root := t.TempDir()

	jsonPath := filepath.Join(root, "entity.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"name": "hero", "tags": ["player"]}`), 0o644))

	yamlPath := filepath.Join(root, "entity.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("name: hero\ntags:\n  - player\n"), 0o644))

	for _, path := range []string{jsonPath, yamlPath} {
		doc, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, "hero", doc["name"])
	}
}

func TestOrderedDocPreservesFieldOrder(t *testing.T) {
	doc := OrderedDoc{
		{Key: "z", Value: 1},
		{Key: "a", Value: 2},
	}
	encoded, err := json.Marshal(doc)
	require.NoError(t, err)
	require.JSONEq(t, `{"z":1,"a":2}`, string(encoded))
	require.Equal(t, `{"z":1,"a":2}`, string(encoded))
}

func TestWriteJSONAtomic(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "out.json")

	require.NoError(t, WriteJSONAtomic(path, map[string]any{"a": 1}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"a": 1}`, string(raw))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no staging file should remain")
}
