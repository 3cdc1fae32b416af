package sidecar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMetadataNames = []string{"metadata.epub.lua", "metadata.pdf.lua", "metadata.lua"}

func mkSidecar(t *testing.T, root, rel string, metadataFiles ...string) string {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range metadataFiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("return {}\n"), 0o644))
	}
	return dir
}

func TestBuildIndex(t *testing.T) {
	root := t.TempDir()
	foundation := mkSidecar(t, root, "books/Foundation (42).sdr", "metadata.epub.lua")
	mkSidecar(t, root, "books/deep/nested/Dune (7).sdr")
	mkSidecar(t, root, "books/No Id Here.sdr", "metadata.epub.lua")
	require.NoError(t, os.WriteFile(filepath.Join(root, "books", "stray.txt"), []byte("x"), 0o644))

	idx, err := BuildIndex(root, testMetadataNames)
	require.NoError(t, err)

	require.Len(t, idx, 2)

	require.Len(t, idx[42], 1)
	entry := idx[42][0]
	assert.Equal(t, "Foundation (42).sdr", entry.DirName)
	assert.Equal(t, foundation, entry.FullPath)
	assert.Equal(t, filepath.Join(foundation, "metadata.epub.lua"), entry.LocationFile)

	require.Len(t, idx[7], 1)
	assert.Equal(t, "", idx[7][0].LocationFile, "entry without metadata file is indexed but unpatchable")
}

func TestBuildIndex_SkipsUnreadableSubtree(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	root := t.TempDir()
	readable := mkSidecar(t, root, "Readable (1).sdr", "metadata.epub.lua")
	locked := filepath.Join(root, "locked")
	mkSidecar(t, locked, "Hidden (2).sdr", "metadata.epub.lua")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	idx, err := BuildIndex(root, testMetadataNames)
	require.NoError(t, err, "an unreadable subtree must not abort the walk")

	require.Len(t, idx, 1)
	require.Len(t, idx[1], 1)
	assert.Equal(t, readable, idx[1][0].FullPath)
}

func TestBuildIndex_UnreadableRootFails(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	root := t.TempDir()
	require.NoError(t, os.Chmod(root, 0o000))
	t.Cleanup(func() { _ = os.Chmod(root, 0o755) })

	_, err := BuildIndex(root, testMetadataNames)
	require.Error(t, err)
}

func TestBuildIndex_FirstMetadataCandidateWins(t *testing.T) {
	root := t.TempDir()
	dir := mkSidecar(t, root, "Both (5).sdr", "metadata.pdf.lua", "metadata.epub.lua")

	idx, err := BuildIndex(root, testMetadataNames)
	require.NoError(t, err)
	require.Len(t, idx[5], 1)
	assert.Equal(t, filepath.Join(dir, "metadata.epub.lua"), idx[5][0].LocationFile)
}

func TestBuildIndex_DoesNotDescendIntoSidecarDirs(t *testing.T) {
	root := t.TempDir()
	outer := mkSidecar(t, root, "Outer (1).sdr", "metadata.epub.lua")
	// A sidecar-looking directory nested inside a sidecar must not be
	// indexed.
	require.NoError(t, os.MkdirAll(filepath.Join(outer, "Inner (2).sdr"), 0o755))

	idx, err := BuildIndex(root, testMetadataNames)
	require.NoError(t, err)
	assert.Len(t, idx[1], 1)
	assert.Empty(t, idx[2])
}

func TestBuildIndex_DuplicateIDs(t *testing.T) {
	root := t.TempDir()
	mkSidecar(t, root, "a/Old Name (9).sdr", "metadata.epub.lua")
	mkSidecar(t, root, "b/Other Name (9).sdr", "metadata.epub.lua")

	idx, err := BuildIndex(root, testMetadataNames)
	require.NoError(t, err)
	assert.Len(t, idx[9], 2, "duplicates are both indexed, never silently dropped")
}

func TestBuildIndex_MissingRoot(t *testing.T) {
	_, err := BuildIndex(filepath.Join(t.TempDir(), "nope"), testMetadataNames)
	require.Error(t, err)
}

func TestBuildIndex_EmptyTree(t *testing.T) {
	idx, err := BuildIndex(t.TempDir(), testMetadataNames)
	require.NoError(t, err)
	assert.Empty(t, idx)
}
