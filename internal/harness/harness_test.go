package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios runs every scenario under testdata/scenarios against
// its golden report snapshot.
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenario files found")

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, "load %s", path)

		t.Run(scenario.Name, func(t *testing.T) {
			RunWithGolden(t, scenario)
		})
	}
}

func intp(v int) *int { return &v }

func TestRunReportsExpectationMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "deliberately wrong expectation",
		Runs:        1,
		Library: []BookSpec{
			{ID: 1, Title: "A", Author: "X", Formats: []string{"EPUB"}},
		},
		Expect: []RunExpect{
			{Materialized: intp(5)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "materialized = 1, want 5")
}

func TestRunReportsFinalStateMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "missing-file",
		Description: "asserts on a file the engine never writes",
		Runs:        1,
		Library: []BookSpec{
			{ID: 1, Title: "A", Author: "X", Formats: []string{"EPUB"}},
		},
		FinalState: &FinalState{
			TargetPresent: []string{"Nope (7).epub"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Nope (7).epub")
}

func TestRunScrubsTempPaths(t *testing.T) {
	scenario := &Scenario{
		Name:        "scrub",
		Description: "duplicate sidecars produce a warning without temp paths",
		Runs:        1,
		Library: []BookSpec{
			{ID: 2, Title: "B", Author: "X", Formats: []string{"EPUB"}},
		},
		Sidecars: []SidecarSpec{
			{Dir: "one/Old (2).sdr", DocPath: "/old/a.epub"},
			{Dir: "two/Old (2).sdr", DocPath: "/old/b.epub"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass)

	require.Len(t, result.Reports, 1)
	for _, w := range result.Reports[0].Warnings {
		assert.NotContains(t, w, "harness-", "temp paths must be scrubbed")
	}
}

func TestRunEmptyLibraryCleansEverything(t *testing.T) {
	scenario := &Scenario{
		Name:        "empty-library",
		Description: "no records means every supported artifact is obsolete",
		Runs:        1,
		TargetFiles: map[string]string{
			"Gone (1).epub": "x",
			"cover.jpg":     "kept, unsupported extension",
		},
		FinalState: &FinalState{
			TargetAbsent:  []string{"Gone (1).epub"},
			TargetPresent: []string{"cover.jpg"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Reports, 1)
	assert.Equal(t, 1, result.Reports[0].Deleted)
}
