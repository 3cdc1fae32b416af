package target

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
)

// Snapshot is the set of artifact files present in the target folder
// at run start, keyed by base filename. A filename can map to several
// paths when copies exist in different subdirectories; cleanup treats
// them alike.
type Snapshot map[string][]string

// ListArtifacts walks root recursively and collects every file whose
// extension is in exts (lower-case dot-extensions, e.g. ".epub").
// Unreadable subtrees are logged and skipped; only an unreadable root
// is an error.
func ListArtifacts(root string, exts []string) (Snapshot, error) {
	extSet := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		extSet[e] = struct{}{}
	}

	snap := make(Snapshot)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("read target folder: %w", err)
			}
			slog.Warn("skipping unreadable target path", "path", path, "error", err)
			return fs.SkipDir
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := extSet[strings.ToLower(filepath.Ext(d.Name()))]; ok {
			snap[d.Name()] = append(snap[d.Name()], path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// Contains reports whether the snapshot holds an artifact with the
// given base filename.
func (s Snapshot) Contains(name string) bool {
	_, ok := s[name]
	return ok
}
