package target

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/roach88/shelfmark/internal/catalog"
)

// Materialize places the record's file at targetPath.
//
// The export lands in a private staging directory first and is renamed
// into place only on success, so a failed or interrupted export never
// leaves a partial file at the target path. The staging directory name
// is unique per invocation, which keeps concurrent runs (or a future
// parallel driver) from colliding, and it is removed on every exit
// path. The catalog timestamp stamped by the export survives the
// rename, keeping staleness checks stable across runs.
func Materialize(ctx context.Context, cat catalog.Catalog, rec catalog.Record, formatTag, targetPath string) error {
	parent := filepath.Dir(targetPath)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}

	// Staging lives next to the target so the final rename stays on
	// one filesystem and is atomic.
	staging := filepath.Join(parent, ".staging-"+uuid.NewString())
	if err := os.Mkdir(staging, 0o755); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	stagedPath := filepath.Join(staging, filepath.Base(targetPath))
	if err := cat.Export(ctx, rec, formatTag, stagedPath); err != nil {
		return fmt.Errorf("export record %d: %w", rec.ID, err)
	}

	if err := os.Rename(stagedPath, targetPath); err != nil {
		return fmt.Errorf("move into place: %w", err)
	}

	return nil
}
