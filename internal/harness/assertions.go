package harness

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/roach88/shelfmark/internal/engine"
)

// checkExpect compares one run's report against its expectation.
// Nil fields are unchecked; a scenario only states what it cares
// about.
func checkExpect(result *Result, run int, expect RunExpect, report *engine.RunReport) {
	check := func(field string, want *int, got int) {
		if want != nil && *want != got {
			result.addError("run %d: %s = %d, want %d", run+1, field, got, *want)
		}
	}

	check("processed", expect.Processed, report.Processed)
	check("materialized", expect.Materialized, report.Materialized)
	check("skipped", expect.Skipped, report.Skipped)
	check("sidecar_renames", expect.SidecarRenames, report.SidecarRenames)
	check("sidecar_patches", expect.SidecarPatches, report.SidecarPatches)
	check("deleted", expect.Deleted, report.Deleted)
	check("warnings", expect.Warnings, len(report.Warnings))
	check("errors", expect.Errors, len(report.Errors))
}

// docPathValue extracts the doc_path value from metadata file content.
var docPathValue = regexp.MustCompile(`\[?"doc_path"\]?\s*=\s*"((?:\\.|[^"\\])*)"`)

// checkFinalState verifies the filesystem after the last run.
func checkFinalState(result *Result, final *FinalState, target, sidecarRoot string) {
	for _, rel := range final.TargetPresent {
		if _, err := os.Stat(filepath.Join(target, filepath.FromSlash(rel))); err != nil {
			result.addError("final state: target file %s missing", rel)
		}
	}
	for _, rel := range final.TargetAbsent {
		if _, err := os.Stat(filepath.Join(target, filepath.FromSlash(rel))); err == nil {
			result.addError("final state: target file %s should not exist", rel)
		}
	}
	for _, rel := range final.SidecarDirs {
		info, err := os.Stat(filepath.Join(sidecarRoot, filepath.FromSlash(rel)))
		if err != nil || !info.IsDir() {
			result.addError("final state: sidecar directory %s missing", rel)
		}
	}
	for _, rel := range final.SidecarDirsAbsent {
		if _, err := os.Stat(filepath.Join(sidecarRoot, filepath.FromSlash(rel))); err == nil {
			result.addError("final state: sidecar directory %s should not exist", rel)
		}
	}
	for rel, wantDoc := range final.DocPaths {
		content, err := os.ReadFile(filepath.Join(sidecarRoot, filepath.FromSlash(rel)))
		if err != nil {
			result.addError("final state: metadata file %s unreadable: %v", rel, err)
			continue
		}
		m := docPathValue.FindSubmatch(content)
		if m == nil {
			result.addError("final state: metadata file %s has no doc_path", rel)
			continue
		}
		// Scenarios state target-relative paths; the engine writes
		// absolute ones.
		want := filepath.Join(target, filepath.FromSlash(wantDoc))
		if string(m[1]) != want {
			result.addError("final state: %s doc_path = %q, want %q", rel, m[1], want)
		}
	}
}
