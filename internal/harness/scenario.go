package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario. A scenario describes a
// starting world (library records, pre-existing target files, seeded
// sidecar directories), runs the engine one or more times, and asserts
// on the per-run reports and the final filesystem state.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden
	// file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Library lists the catalog records materialized into a fresh
	// fixture metadata.db.
	Library []BookSpec `yaml:"library"`

	// Profile overrides parts of the default profile.
	Profile *ProfileSpec `yaml:"profile,omitempty"`

	// TargetFiles are pre-existing files in the target folder,
	// relative path to content.
	TargetFiles map[string]string `yaml:"target_files,omitempty"`

	// Sidecars are pre-existing sidecar directories.
	Sidecars []SidecarSpec `yaml:"sidecars,omitempty"`

	// Runs is the number of consecutive engine runs. Defaults to 1.
	Runs int `yaml:"runs,omitempty"`

	// DryRun runs the engine in dry-run mode. The harness then also
	// verifies that no run touched the filesystem.
	DryRun bool `yaml:"dry_run,omitempty"`

	// Expect holds per-run report expectations, index-aligned with
	// the runs. Fewer entries than runs is allowed; extra runs are
	// unchecked.
	Expect []RunExpect `yaml:"expect,omitempty"`

	// FinalState asserts on the world after the last run.
	FinalState *FinalState `yaml:"final_state,omitempty"`
}

// BookSpec describes one fixture catalog record.
type BookSpec struct {
	ID          int64    `yaml:"id"`
	Title       string   `yaml:"title"`
	Author      string   `yaml:"author"`
	AuthorSort  string   `yaml:"author_sort,omitempty"`
	Series      string   `yaml:"series,omitempty"`
	SeriesIndex float64  `yaml:"series_index,omitempty"`
	Formats     []string `yaml:"formats"`

	// LastModified is an RFC 3339 timestamp. Defaults to a fixed
	// instant so goldens stay stable.
	LastModified string `yaml:"last_modified,omitempty"`
}

// ProfileSpec overrides default profile fields from a scenario.
type ProfileSpec struct {
	Template string   `yaml:"template,omitempty"`
	Formats  []string `yaml:"formats,omitempty"`
}

// SidecarSpec describes one seeded sidecar directory.
type SidecarSpec struct {
	// Dir is the directory path relative to the sidecar root,
	// including the .sdr suffix.
	Dir string `yaml:"dir"`

	// DocPath is the document path written into the metadata file.
	// When empty the directory is created without a metadata file.
	DocPath string `yaml:"doc_path,omitempty"`

	// MetadataName overrides the metadata filename. Defaults to
	// metadata.epub.lua.
	MetadataName string `yaml:"metadata_name,omitempty"`
}

// RunExpect holds report expectations for one run. Nil fields are not
// checked, so a scenario only states the counts it cares about.
type RunExpect struct {
	Processed      *int `yaml:"processed,omitempty"`
	Materialized   *int `yaml:"materialized,omitempty"`
	Skipped        *int `yaml:"skipped,omitempty"`
	SidecarRenames *int `yaml:"sidecar_renames,omitempty"`
	SidecarPatches *int `yaml:"sidecar_patches,omitempty"`
	Deleted        *int `yaml:"deleted,omitempty"`
	Warnings       *int `yaml:"warnings,omitempty"`
	Errors         *int `yaml:"errors,omitempty"`
}

// FinalState asserts on the filesystem after the last run.
type FinalState struct {
	// TargetPresent lists target-relative paths that must exist.
	TargetPresent []string `yaml:"target_present,omitempty"`

	// TargetAbsent lists target-relative paths that must not exist.
	TargetAbsent []string `yaml:"target_absent,omitempty"`

	// SidecarDirs lists sidecar-relative directories that must exist.
	SidecarDirs []string `yaml:"sidecar_dirs,omitempty"`

	// SidecarDirsAbsent lists sidecar-relative directories that must
	// not exist.
	SidecarDirsAbsent []string `yaml:"sidecar_dirs_absent,omitempty"`

	// DocPaths maps a sidecar-relative metadata file to the target-
	// relative document path its doc_path field must point at.
	DocPaths map[string]string `yaml:"doc_paths,omitempty"`
}

// fixtureTime is the default record timestamp; fixed so golden files
// and staleness decisions are reproducible.
var fixtureTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Runs < 0 {
		return fmt.Errorf("runs must be non-negative")
	}
	if s.Runs == 0 {
		s.Runs = 1
	}
	if len(s.Expect) > s.Runs {
		return fmt.Errorf("expect has %d entries for %d runs", len(s.Expect), s.Runs)
	}

	seen := make(map[int64]bool)
	for i, b := range s.Library {
		if b.ID <= 0 {
			return fmt.Errorf("library[%d]: id must be positive", i)
		}
		if seen[b.ID] {
			return fmt.Errorf("library[%d]: duplicate id %d", i, b.ID)
		}
		seen[b.ID] = true
		if b.Title == "" {
			return fmt.Errorf("library[%d]: title is required", i)
		}
		if len(b.Formats) == 0 {
			return fmt.Errorf("library[%d]: formats list is required and must be non-empty", i)
		}
		if b.LastModified != "" {
			if _, err := time.Parse(time.RFC3339, b.LastModified); err != nil {
				return fmt.Errorf("library[%d]: last_modified: %w", i, err)
			}
		}
	}

	for i, sc := range s.Sidecars {
		if sc.Dir == "" {
			return fmt.Errorf("sidecars[%d]: dir is required", i)
		}
	}

	return nil
}

// timestamp returns the record's effective timestamp.
func (b BookSpec) timestamp() time.Time {
	if b.LastModified == "" {
		return fixtureTime
	}
	// Validated at load time.
	ts, _ := time.Parse(time.RFC3339, b.LastModified)
	return ts
}
