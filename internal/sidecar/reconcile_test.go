package sidecar

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// osFS applies mutations directly; the engine's applying mutator does
// the same thing.
type osFS struct{}

func (osFS) RenameDir(oldPath, newPath string) error { return os.Rename(oldPath, newPath) }
func (osFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

// recordingFS plans mutations without touching the filesystem, like
// the engine's dry-run mutator.
type recordingFS struct {
	renames []string
	writes  []string
}

func (r *recordingFS) RenameDir(oldPath, newPath string) error {
	r.renames = append(r.renames, newPath)
	return nil
}

func (r *recordingFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	r.writes = append(r.writes, path)
	return nil
}

func seedEntry(t *testing.T, root, dirName, docPath string) Entry {
	t.Helper()
	dir := mkSidecar(t, root, dirName, "metadata.epub.lua")
	content := "return {\n    [\"doc_path\"] = \"" + docPath + "\",\n    [\"percent_finished\"] = 0.1,\n}\n"
	loc := filepath.Join(dir, "metadata.epub.lua")
	require.NoError(t, os.WriteFile(loc, []byte(content), 0o644))
	return Entry{ID: 1, DirName: dirName, FullPath: dir, LocationFile: loc}
}

func TestReconcile_RenameAndPatch(t *testing.T) {
	root := t.TempDir()
	entry := seedEntry(t, root, "Old Name (1).sdr", "/old/Old Name (1).epub")

	r := NewReconciler(osFS{})
	outcomes := r.Reconcile([]Entry{entry}, "New Name (1).sdr", "/new/New Name (1).epub")
	require.Len(t, outcomes, 1)

	out := outcomes[0]
	require.NoError(t, out.Err)
	assert.True(t, out.Renamed)
	assert.True(t, out.Patched)
	assert.True(t, out.Changed())

	newDir := filepath.Join(root, "New Name (1).sdr")
	assert.Equal(t, newDir, out.Entry.FullPath)
	assert.DirExists(t, newDir)
	assert.NoDirExists(t, filepath.Join(root, "Old Name (1).sdr"))

	content, err := os.ReadFile(filepath.Join(newDir, "metadata.epub.lua"))
	require.NoError(t, err)
	assert.Contains(t, string(content), `["doc_path"] = "/new/New Name (1).epub",`)
	assert.Contains(t, string(content), `["percent_finished"] = 0.1,`)
}

// failingWriteFS renames for real but refuses every write.
type failingWriteFS struct{ osFS }

func (failingWriteFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return errors.New("disk full")
}

func TestReconcile_WriteFailureStillReportsRename(t *testing.T) {
	root := t.TempDir()
	entry := seedEntry(t, root, "Old Name (1).sdr", "/old/Old Name (1).epub")

	r := NewReconciler(failingWriteFS{})
	outcomes := r.Reconcile([]Entry{entry}, "New Name (1).sdr", "/new/New Name (1).epub")
	require.Len(t, outcomes, 1)

	out := outcomes[0]
	require.Error(t, out.Err)
	assert.True(t, out.Renamed, "the performed rename is reported despite the failed patch")
	assert.False(t, out.Patched)
	assert.DirExists(t, filepath.Join(root, "New Name (1).sdr"))
}

func TestReconcile_NoOpWhenCanonical(t *testing.T) {
	root := t.TempDir()
	entry := seedEntry(t, root, "Name (1).sdr", "/target/Name (1).epub")

	r := NewReconciler(osFS{})
	outcomes := r.Reconcile([]Entry{entry}, "Name (1).sdr", "/target/Name (1).epub")
	require.Len(t, outcomes, 1)

	out := outcomes[0]
	require.NoError(t, out.Err)
	assert.False(t, out.Changed(), "an already-correct entry reports no change")
	assert.Equal(t, PatchUnchanged, out.Patch)
}

func TestReconcile_RenameConflict(t *testing.T) {
	root := t.TempDir()
	entry := seedEntry(t, root, "Old Name (1).sdr", "/old/Old Name (1).epub")
	// Occupy the rename target.
	mkSidecar(t, root, "New Name (1).sdr", "metadata.epub.lua")

	r := NewReconciler(osFS{})
	outcomes := r.Reconcile([]Entry{entry}, "New Name (1).sdr", "/new/New Name (1).epub")
	require.Len(t, outcomes, 1)

	out := outcomes[0]
	require.NoError(t, out.Err)
	assert.True(t, out.Conflict)
	assert.False(t, out.Renamed)
	assert.DirExists(t, filepath.Join(root, "Old Name (1).sdr"), "conflicting source is never deleted")

	// The patch still lands in the unrenamed entry's file.
	assert.True(t, out.Patched)
	content, err := os.ReadFile(entry.LocationFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `/new/New Name (1).epub`)
}

func TestReconcile_EntryWithoutLocationFile(t *testing.T) {
	root := t.TempDir()
	dir := mkSidecar(t, root, "Bare (3).sdr")
	entry := Entry{ID: 3, DirName: "Bare (3).sdr", FullPath: dir}

	r := NewReconciler(osFS{})
	outcomes := r.Reconcile([]Entry{entry}, "Canonical (3).sdr", "/new/Canonical (3).epub")
	require.Len(t, outcomes, 1)

	out := outcomes[0]
	require.NoError(t, out.Err)
	assert.True(t, out.Renamed)
	assert.False(t, out.Patched)
	assert.DirExists(t, filepath.Join(root, "Canonical (3).sdr"))
}

func TestReconcile_DuplicatesProcessedIndependently(t *testing.T) {
	root := t.TempDir()
	a := seedEntry(t, filepath.Join(root, "a"), "Old (1).sdr", "/old/Old (1).epub")
	b := seedEntry(t, filepath.Join(root, "b"), "Other (1).sdr", "/old/Other (1).epub")

	r := NewReconciler(osFS{})
	outcomes := r.Reconcile([]Entry{a, b}, "New (1).sdr", "/new/New (1).epub")
	require.Len(t, outcomes, 2)

	for _, out := range outcomes {
		require.NoError(t, out.Err)
		assert.True(t, out.Renamed)
		assert.True(t, out.Patched)
	}
	assert.DirExists(t, filepath.Join(root, "a", "New (1).sdr"))
	assert.DirExists(t, filepath.Join(root, "b", "New (1).sdr"))
}

func TestReconcile_DryRunTouchesNothing(t *testing.T) {
	root := t.TempDir()
	entry := seedEntry(t, root, "Old Name (1).sdr", "/old/Old Name (1).epub")
	before, err := os.ReadFile(entry.LocationFile)
	require.NoError(t, err)

	rec := &recordingFS{}
	r := NewReconciler(rec)
	outcomes := r.Reconcile([]Entry{entry}, "New Name (1).sdr", "/new/New Name (1).epub")
	require.Len(t, outcomes, 1)

	out := outcomes[0]
	require.NoError(t, out.Err)
	assert.True(t, out.Renamed, "dry run reports the same planned changes")
	assert.True(t, out.Patched)

	// Filesystem unchanged.
	assert.DirExists(t, filepath.Join(root, "Old Name (1).sdr"))
	assert.NoDirExists(t, filepath.Join(root, "New Name (1).sdr"))
	after, err := os.ReadFile(entry.LocationFile)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// And the planned operations were recorded.
	assert.Equal(t, []string{filepath.Join(root, "New Name (1).sdr")}, rec.renames)
	assert.Equal(t, []string{filepath.Join(root, "New Name (1).sdr", "metadata.epub.lua")}, rec.writes)
}

func TestReconcile_UnrecognizedMetadataLeftAlone(t *testing.T) {
	root := t.TempDir()
	dir := mkSidecar(t, root, "Name (4).sdr")
	loc := filepath.Join(dir, "metadata.epub.lua")
	require.NoError(t, os.WriteFile(loc, []byte("garbage\n"), 0o644))
	entry := Entry{ID: 4, DirName: "Name (4).sdr", FullPath: dir, LocationFile: loc}

	r := NewReconciler(osFS{})
	outcomes := r.Reconcile([]Entry{entry}, "Name (4).sdr", "/new/Name (4).epub")
	require.Len(t, outcomes, 1)

	out := outcomes[0]
	require.NoError(t, out.Err)
	assert.Equal(t, PatchUnrecognized, out.Patch)
	assert.False(t, out.Changed())

	content, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "garbage\n", string(content))
}
