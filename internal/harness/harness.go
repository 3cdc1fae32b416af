// Package harness provides a conformance testing framework for the
// convergence engine.
//
// Scenarios are YAML files describing a starting world: catalog
// records, pre-existing target files and seeded sidecar directories.
// The harness materializes the world into temp directories backed by a
// real SQLite fixture catalog, runs the engine the requested number of
// times, and checks each run's report counts plus the final filesystem
// state. A golden rendering of the reports guards against silent
// behavior drift.
package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/shelfmark/internal/catalog"
	"github.com/roach88/shelfmark/internal/engine"
	"github.com/roach88/shelfmark/internal/profile"
	"github.com/roach88/shelfmark/internal/testutil"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success. True if every
	// expectation matched.
	Pass bool `json:"pass"`

	// Reports holds one report per engine run, in run order. Paths
	// inside warning and error strings are rewritten to the $LIBRARY,
	// $TARGET and $SIDECAR placeholders so golden files stay stable
	// across temp directories.
	Reports []*engine.RunReport `json:"reports"`

	// Errors contains expectation failure messages. Empty if Pass is
	// true.
	Errors []string `json:"errors,omitempty"`
}

// addError adds an expectation failure and marks the result failed.
func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in fresh temp directories for isolation; they are
// removed before Run returns, so all assertions on the world happen
// inside Run (driven by the scenario's expect and final_state
// clauses).
func Run(scenario *Scenario) (*Result, error) {
	library, err := os.MkdirTemp("", "harness-library-")
	if err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	defer os.RemoveAll(library)
	target, err := os.MkdirTemp("", "harness-target-")
	if err != nil {
		return nil, fmt.Errorf("create target dir: %w", err)
	}
	defer os.RemoveAll(target)
	sidecarRoot, err := os.MkdirTemp("", "harness-sidecar-")
	if err != nil {
		return nil, fmt.Errorf("create sidecar dir: %w", err)
	}
	defer os.RemoveAll(sidecarRoot)

	if err := buildWorld(scenario, library, target, sidecarRoot); err != nil {
		return nil, err
	}

	prof := effectiveProfile(scenario)

	cat, err := catalog.Open(library)
	if err != nil {
		return nil, fmt.Errorf("open fixture catalog: %w", err)
	}
	defer cat.Close()

	result := &Result{Pass: true}
	ctx := context.Background()

	for run := 0; run < scenario.Runs; run++ {
		var before map[string]string
		if scenario.DryRun {
			if before, err = snapshotWorld(target, sidecarRoot); err != nil {
				return nil, err
			}
		}

		eng, err := engine.New(cat, prof, target, sidecarRoot, scenario.DryRun)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", run+1, err)
		}
		report, err := eng.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", run+1, err)
		}
		result.Reports = append(result.Reports, report)

		if run < len(scenario.Expect) {
			checkExpect(result, run, scenario.Expect[run], report)
		}

		if scenario.DryRun {
			after, err := snapshotWorld(target, sidecarRoot)
			if err != nil {
				return nil, err
			}
			if !mapsEqual(before, after) {
				result.addError("run %d: dry run modified the filesystem", run+1)
			}
		}
	}

	if scenario.FinalState != nil {
		checkFinalState(result, scenario.FinalState, target, sidecarRoot)
	}

	scrubPaths(result, library, target, sidecarRoot)

	return result, nil
}

// buildWorld materializes the scenario's starting state.
func buildWorld(scenario *Scenario, library, target, sidecarRoot string) error {
	books := make([]catalog.FixtureBook, 0, len(scenario.Library))
	for _, b := range scenario.Library {
		books = append(books, catalog.FixtureBook{
			ID:           b.ID,
			Title:        b.Title,
			Author:       b.Author,
			AuthorSort:   b.AuthorSort,
			Series:       b.Series,
			SeriesIndex:  b.SeriesIndex,
			LastModified: b.timestamp(),
			Formats:      b.Formats,
		})
	}
	if err := catalog.CreateFixture(library, books); err != nil {
		return fmt.Errorf("create fixture library: %w", err)
	}

	if err := testutil.WriteTree(target, scenario.TargetFiles); err != nil {
		return fmt.Errorf("seed target files: %w", err)
	}

	for _, sc := range scenario.Sidecars {
		dir := filepath.Join(sidecarRoot, filepath.FromSlash(sc.Dir))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("seed sidecar %s: %w", sc.Dir, err)
		}
		if sc.DocPath == "" {
			continue
		}
		name := sc.MetadataName
		if name == "" {
			name = "metadata.epub.lua"
		}
		content := fmt.Sprintf("return {\n    [\"doc_path\"] = %q,\n    [\"percent_finished\"] = 0.42,\n}\n", sc.DocPath)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("seed sidecar %s: %w", sc.Dir, err)
		}
	}

	return nil
}

// effectiveProfile applies the scenario's profile overrides.
func effectiveProfile(scenario *Scenario) profile.Profile {
	prof := profile.Default()
	if scenario.Profile == nil {
		return prof
	}
	if scenario.Profile.Template != "" {
		prof.Template = scenario.Profile.Template
	}
	if len(scenario.Profile.Formats) > 0 {
		prof.FormatPreference = scenario.Profile.Formats
	}
	return prof
}

// snapshotWorld captures both mutable trees for dry-run comparison.
func snapshotWorld(target, sidecarRoot string) (map[string]string, error) {
	snap, err := testutil.SnapshotTree(target)
	if err != nil {
		return nil, fmt.Errorf("snapshot target: %w", err)
	}
	sideSnap, err := testutil.SnapshotTree(sidecarRoot)
	if err != nil {
		return nil, fmt.Errorf("snapshot sidecar tree: %w", err)
	}
	for k, v := range sideSnap {
		snap["sidecar:"+k] = v
	}
	return snap, nil
}

func mapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// scrubPaths rewrites temp directory paths in report warnings and
// errors to stable placeholders.
func scrubPaths(result *Result, library, target, sidecarRoot string) {
	replace := func(s string) string {
		s = strings.ReplaceAll(s, library, "$LIBRARY")
		s = strings.ReplaceAll(s, target, "$TARGET")
		s = strings.ReplaceAll(s, sidecarRoot, "$SIDECAR")
		return s
	}

	for _, report := range result.Reports {
		for i, w := range report.Warnings {
			report.Warnings[i] = replace(w)
		}
		for _, e := range report.Errors {
			e.Message = replace(e.Message)
			e.Path = replace(e.Path)
		}
	}
	for i, e := range result.Errors {
		result.Errors[i] = replace(e)
	}
}
