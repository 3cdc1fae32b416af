package sidecar

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/shelfmark/internal/ident"
)

// Entry is one indexed sidecar directory.
type Entry struct {
	// ID is the correlation id embedded in the directory name.
	ID int64

	// DirName is the directory's base name, ending in the sidecar
	// suffix.
	DirName string

	// FullPath is the directory's absolute path.
	FullPath string

	// LocationFile is the path of the metadata file holding the
	// doc_path field, or "" when no recognized candidate was found.
	// Entries without one are still indexed but cannot be patched.
	LocationFile string
}

// Index maps correlation ids to the sidecar entries carrying them.
// More than one entry per id indicates a pre-existing inconsistency in
// the reader installation; both are kept and reconciled independently.
type Index map[int64][]Entry

// BuildIndex walks root and indexes every directory whose name ends in
// the sidecar suffix and embeds a correlation id. metadataNames is the
// ordered candidate list probed inside each matched directory; the
// first present file becomes the entry's LocationFile.
//
// Matched directories are not descended into. Unreadable
// subdirectories are logged and skipped; only an unreadable root is an
// error.
func BuildIndex(root string, metadataNames []string) (Index, error) {
	idx := make(Index)
	if err := walk(root, metadataNames, idx, true); err != nil {
		return nil, err
	}
	return idx, nil
}

// walk recurses through dir collecting sidecar entries. isRoot makes
// readability of the top level fatal while deeper failures only warn.
func walk(dir string, metadataNames []string, idx Index, isRoot bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if isRoot {
			return fmt.Errorf("read sidecar tree: %w", err)
		}
		slog.Warn("skipping unreadable directory", "path", dir, "error", err)
		return nil
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())

		if !strings.HasSuffix(e.Name(), ident.SidecarSuffix) {
			if err := walk(path, metadataNames, idx, false); err != nil {
				return err
			}
			continue
		}

		// A .sdr directory terminates descent whether or not it
		// carries an id.
		id, ok := ident.FromSidecarName(e.Name())
		if !ok {
			continue
		}
		idx[id] = append(idx[id], Entry{
			ID:           id,
			DirName:      e.Name(),
			FullPath:     path,
			LocationFile: probeLocationFile(path, metadataNames),
		})
	}

	return nil
}

// probeLocationFile returns the first metadata candidate present in
// dir, or "".
func probeLocationFile(dir string, metadataNames []string) string {
	for _, name := range metadataNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}
