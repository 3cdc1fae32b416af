package sidecar

import (
	"fmt"
	"os"
	"path/filepath"
)

// FS is the mutation surface the reconciler needs. The engine provides
// an applying implementation and a recording one for dry runs; reads
// always go to the real filesystem in both modes.
type FS interface {
	// RenameDir renames a directory within the same parent.
	RenameDir(oldPath, newPath string) error

	// WriteFile replaces a file's content.
	WriteFile(path string, data []byte, perm os.FileMode) error
}

// EntryOutcome reports what reconciliation did to one sidecar entry.
type EntryOutcome struct {
	// Entry is the entry's state after reconciliation, with paths
	// reflecting a performed (or planned, in dry runs) rename.
	Entry Entry

	// Renamed is true when the directory rename was performed or
	// planned.
	Renamed bool

	// Conflict is true when the rename target already existed; the
	// rename was skipped and the patch applied to the unrenamed
	// entry.
	Conflict bool

	// Patch classifies the doc_path patch; meaningful only when the
	// entry has a location file and Err is nil.
	Patch PatchOutcome

	// Patched is true when the patch altered file content.
	Patched bool

	// Err is the I/O failure that stopped this entry's
	// reconciliation, nil on success.
	Err error
}

// Changed reports whether the outcome altered (or would alter)
// filesystem state.
func (o EntryOutcome) Changed() bool { return o.Renamed || o.Patched }

// Reconciler relocates sidecar entries and patches their embedded
// location field.
type Reconciler struct {
	fs FS
}

// NewReconciler creates a reconciler mutating through fs.
func NewReconciler(fs FS) *Reconciler {
	return &Reconciler{fs: fs}
}

// Reconcile brings every entry in line with the record's canonical
// identity: the directory is renamed to expectedDirName and the
// doc_path field patched to newTargetPath. Entries are processed
// independently; one entry's failure never stops the others.
//
// A no-op (entry already canonical, field already correct) reports no
// change and no error.
func (r *Reconciler) Reconcile(entries []Entry, expectedDirName, newTargetPath string) []EntryOutcome {
	outcomes := make([]EntryOutcome, 0, len(entries))
	for _, entry := range entries {
		outcomes = append(outcomes, r.reconcileEntry(entry, expectedDirName, newTargetPath))
	}
	return outcomes
}

// reconcileEntry performs the rename-then-patch sequence for one
// entry. The metadata file must be read before the rename moves the
// directory; the patched content is written to the entry's post-rename
// location (which in a dry run is still the original one).
func (r *Reconciler) reconcileEntry(entry Entry, expectedDirName, newTargetPath string) EntryOutcome {
	out := EntryOutcome{Entry: entry}

	var content []byte
	if entry.LocationFile != "" {
		var err error
		content, err = os.ReadFile(entry.LocationFile)
		if err != nil {
			out.Err = fmt.Errorf("read %s: %w", entry.LocationFile, err)
			return out
		}
	}

	if entry.DirName != expectedDirName {
		newDirPath := filepath.Join(filepath.Dir(entry.FullPath), expectedDirName)
		if existsAsOther(newDirPath, entry.FullPath) {
			// Conflict: never delete or overwrite an existing
			// sidecar. Patch the unrenamed entry's file below.
			out.Conflict = true
		} else if err := r.fs.RenameDir(entry.FullPath, newDirPath); err != nil {
			out.Err = fmt.Errorf("rename sidecar %s: %w", entry.DirName, err)
			return out
		} else {
			out.Renamed = true
			out.Entry.DirName = expectedDirName
			out.Entry.FullPath = newDirPath
			if entry.LocationFile != "" {
				out.Entry.LocationFile = filepath.Join(newDirPath, filepath.Base(entry.LocationFile))
			}
		}
	}

	if entry.LocationFile == "" {
		return out
	}

	patched, outcome := PatchDocPath(string(content), newTargetPath)
	out.Patch = outcome
	if outcome == PatchUnchanged || outcome == PatchUnrecognized {
		return out
	}

	if err := r.fs.WriteFile(out.Entry.LocationFile, []byte(patched), 0o644); err != nil {
		out.Err = fmt.Errorf("write %s: %w", out.Entry.LocationFile, err)
		return out
	}
	out.Patched = true

	return out
}

// existsAsOther reports whether path exists and is not the same
// directory as src (case-insensitive filesystems make a case-only
// rename stat its own source).
func existsAsOther(path, src string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return true
	}
	return !os.SameFile(info, srcInfo)
}
