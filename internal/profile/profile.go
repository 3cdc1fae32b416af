package profile

import (
	"fmt"
	"strings"
)

// Profile is the configuration value threaded through a convergence
// run. Construct via Default or Load; never mutate after construction.
type Profile struct {
	// Template is the naming template rendered per record; see the
	// render package for the grammar.
	Template string

	// FormatPreference lists upper-case format tags, most preferred
	// first. A record's chosen format is the first preferred tag it
	// has; records intersecting none fail with a per-record error.
	// The preference list doubles as the supported-format set.
	FormatPreference []string

	// SidecarMetadataNames is the ordered list of metadata filenames
	// probed inside a sidecar directory; the first present wins.
	SidecarMetadataNames []string

	// Remaps substitutes field values before rendering, keyed by
	// field name then literal value.
	Remaps map[string]map[string]string
}

// Default returns the compiled-in profile.
func Default() Profile {
	return Profile{
		Template:         "{title} - {author_sort}",
		FormatPreference: []string{"EPUB", "PDF", "MOBI", "AZW3", "CBZ", "TXT"},
		SidecarMetadataNames: []string{
			"metadata.epub.lua",
			"metadata.pdf.lua",
			"metadata.mobi.lua",
			"metadata.lua",
		},
		Remaps: map[string]map[string]string{},
	}
}

// SupportedExtensions returns the lower-case dot-extensions implied by
// the format preference order, e.g. [".epub", ".pdf"].
func (p Profile) SupportedExtensions() []string {
	exts := make([]string, len(p.FormatPreference))
	for i, tag := range p.FormatPreference {
		exts[i] = "." + strings.ToLower(tag)
	}
	return exts
}

// ChooseFormat picks the most preferred format among the record's
// available tags. Returns ok=false when none of available intersects
// the preference order.
func (p Profile) ChooseFormat(available []string) (string, bool) {
	for _, tag := range p.FormatPreference {
		for _, have := range available {
			if strings.EqualFold(have, tag) {
				return tag, true
			}
		}
	}
	return "", false
}

// RemapValue applies the profile's remap table to one field value.
// Values without a remap entry pass through unchanged.
func (p Profile) RemapValue(field, value string) string {
	if m, ok := p.Remaps[field]; ok {
		if mapped, ok := m[value]; ok {
			return mapped
		}
	}
	return value
}

// validate checks the invariants Load must guarantee.
func (p Profile) validate() error {
	if strings.TrimSpace(p.Template) == "" {
		return fmt.Errorf("template must not be empty")
	}
	if len(p.FormatPreference) == 0 {
		return fmt.Errorf("formats must list at least one format tag")
	}
	for _, tag := range p.FormatPreference {
		if tag == "" || tag != strings.ToUpper(tag) {
			return fmt.Errorf("format tag %q must be upper-case and non-empty", tag)
		}
	}
	if len(p.SidecarMetadataNames) == 0 {
		return fmt.Errorf("sidecar metadata candidates must not be empty")
	}
	return nil
}
