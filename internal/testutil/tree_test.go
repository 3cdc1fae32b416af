package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, WriteTree(root, map[string]string{
		"a.txt":          "alpha",
		"nested/b.txt":   "beta",
		"nested/c/d.txt": "delta",
	}))

	content, err := os.ReadFile(filepath.Join(root, "nested", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "beta", string(content))
}

func TestSnapshotTreeDetectsChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, WriteTree(root, map[string]string{"a.txt": "one"}))

	before, err := SnapshotTree(root)
	require.NoError(t, err)

	same, err := SnapshotTree(root)
	require.NoError(t, err)
	assert.Equal(t, before, same, "snapshot of an untouched tree is stable")

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("two"), 0o644))
	after, err := SnapshotTree(root)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestSnapshotTreeDetectsRenames(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, WriteTree(root, map[string]string{"old/x.txt": "x"}))

	before, err := SnapshotTree(root)
	require.NoError(t, err)

	require.NoError(t, os.Rename(filepath.Join(root, "old"), filepath.Join(root, "new")))
	after, err := SnapshotTree(root)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}
