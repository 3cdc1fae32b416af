package engine

import (
	"context"
	"log/slog"
	"os"

	"github.com/roach88/shelfmark/internal/catalog"
	"github.com/roach88/shelfmark/internal/target"
)

// Mutator is the single surface through which a run touches the
// filesystem. Every mutating operation has a reporting-only variant:
// the applying mutator performs the operation, the dry-run mutator
// only acknowledges it, and the driver logs the planned action before
// either is invoked so both modes narrate identically.
//
// Read-side decisions (staleness, identity extraction, indexing)
// bypass the mutator entirely and behave the same in both modes.
type Mutator interface {
	// Materialize places the record's file at targetPath.
	Materialize(ctx context.Context, rec catalog.Record, formatTag, targetPath string) error

	// RenameDir renames a sidecar directory within its parent.
	RenameDir(oldPath, newPath string) error

	// WriteFile replaces a metadata file's content.
	WriteFile(path string, data []byte, perm os.FileMode) error

	// Remove deletes an obsolete target artifact.
	Remove(path string) error
}

// applyMutator performs mutations for real.
type applyMutator struct {
	cat catalog.Catalog
}

func (m *applyMutator) Materialize(ctx context.Context, rec catalog.Record, formatTag, targetPath string) error {
	return target.Materialize(ctx, m.cat, rec, formatTag, targetPath)
}

func (m *applyMutator) RenameDir(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

func (m *applyMutator) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

func (m *applyMutator) Remove(path string) error {
	return os.Remove(path)
}

// dryRunMutator acknowledges mutations without performing them. The
// driver's logging and report counting give dry runs the same visible
// output as a real run's plan.
type dryRunMutator struct{}

func (dryRunMutator) Materialize(ctx context.Context, rec catalog.Record, formatTag, targetPath string) error {
	slog.Debug("dry-run: would materialize", "record", rec.ID, "path", targetPath)
	return nil
}

func (dryRunMutator) RenameDir(oldPath, newPath string) error {
	slog.Debug("dry-run: would rename", "from", oldPath, "to", newPath)
	return nil
}

func (dryRunMutator) WriteFile(path string, data []byte, perm os.FileMode) error {
	slog.Debug("dry-run: would write", "path", path, "bytes", len(data))
	return nil
}

func (dryRunMutator) Remove(path string) error {
	slog.Debug("dry-run: would delete", "path", path)
	return nil
}
