// Package testutil provides filesystem fixtures for deterministic
// tests: building directory trees from literal maps and snapshotting
// them for before/after comparison.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteTree materializes files under root. Keys are slash-separated
// relative paths, values are file contents. Parent directories are
// created as needed.
func WriteTree(root string, files map[string]string) error {
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create dir for %s: %w", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
	}
	return nil
}

// SnapshotTree captures every entry under root keyed by relative path.
// Directories map to "dir/"; files map to their content plus
// modification time, so any rename, rewrite or touch shows up as a
// difference.
func SnapshotTree(root string) (map[string]string, error) {
	snap := make(map[string]string)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if info.IsDir() {
			snap[filepath.ToSlash(rel)] = "dir/"
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		snap[filepath.ToSlash(rel)] = string(content) + "|" + info.ModTime().UTC().String()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
