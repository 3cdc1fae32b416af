package engine

import (
	"fmt"
	"strings"
)

// RunReport summarizes one convergence run. In dry-run mode the counts
// describe the planned actions; the filesystem is untouched.
type RunReport struct {
	DryRun bool `json:"dry_run"`

	// Processed counts records that entered the per-record pipeline.
	Processed int `json:"processed"`

	// Materialized counts records whose file was (or would be)
	// copied; Skipped counts records whose target was already fresh.
	Materialized int `json:"materialized"`
	Skipped      int `json:"skipped"`

	// SidecarRenames and SidecarPatches count sidecar directory
	// relocations and doc_path rewrites.
	SidecarRenames int `json:"sidecar_renames"`
	SidecarPatches int `json:"sidecar_patches"`

	// Deleted counts obsolete target artifacts removed by cleanup.
	Deleted int `json:"deleted"`

	// Warnings are non-fatal oddities: duplicate sidecar entries,
	// rename conflicts, unpatchable metadata files.
	Warnings []string `json:"warnings,omitempty"`

	// Errors are the per-record and per-cleanup-item failures; the
	// run completed despite them.
	Errors []*RunError `json:"errors,omitempty"`
}

// Changed reports whether the run performed (or planned) any mutation.
func (r *RunReport) Changed() bool {
	return r.Materialized > 0 || r.SidecarRenames > 0 || r.SidecarPatches > 0 || r.Deleted > 0
}

// warnf appends a formatted warning.
func (r *RunReport) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// String renders the human-readable end-of-run summary.
func (r *RunReport) String() string {
	var b strings.Builder

	if r.DryRun {
		b.WriteString("Dry run - no changes were made.\n")
	}
	fmt.Fprintf(&b, "Processed %d records: %d materialized, %d up to date.\n",
		r.Processed, r.Materialized, r.Skipped)
	fmt.Fprintf(&b, "Sidecars: %d renamed, %d patched.\n", r.SidecarRenames, r.SidecarPatches)
	fmt.Fprintf(&b, "Cleanup: %d obsolete artifacts deleted.\n", r.Deleted)

	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "Warning: %s\n", w)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "%d errors:\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "  %s\n", e.Error())
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}
