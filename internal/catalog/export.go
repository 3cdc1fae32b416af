package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Export copies the record's stored file in the given format to
// destPath and stamps the copy with the record's catalog timestamp.
// Staleness checks compare that same timestamp against the copy's
// mtime, so a copy that succeeds here stays fresh across runs that
// change nothing at the source, even when a metadata-only edit moved
// the catalog timestamp past the stored file's mtime.
func (c *SQLite) Export(ctx context.Context, rec Record, formatTag, destPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, ok := rec.FormatByTag(formatTag)
	if !ok {
		return fmt.Errorf("record %d has no %s format", rec.ID, formatTag)
	}

	srcPath := filepath.Join(c.root, filepath.FromSlash(rec.StoragePath),
		f.BaseName+"."+strings.ToLower(formatTag))

	if _, err := os.Stat(srcPath); err != nil {
		return fmt.Errorf("stored file missing: %w", err)
	}

	if err := copyFile(srcPath, destPath); err != nil {
		return err
	}

	if err := os.Chtimes(destPath, rec.LastModified, rec.LastModified); err != nil {
		return fmt.Errorf("stamp timestamp: %w", err)
	}

	return nil
}

// copyFile copies src to dst, truncating dst if it exists.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy content: %w", err)
	}

	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("flush destination: %w", err)
	}

	return nil
}
