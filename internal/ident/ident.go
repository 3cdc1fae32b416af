package ident

import (
	"regexp"
	"strconv"
	"strings"
)

// SidecarSuffix is the directory suffix the reader software uses for
// per-book state directories.
const SidecarSuffix = ".sdr"

// idPattern matches a parenthesized run of decimal digits at the end of
// a base name. The base name is what remains after stripping the
// relevant suffix, so the pattern is anchored at the end and the last
// such run wins ("Weird (12) (34)" yields 34).
var idPattern = regexp.MustCompile(`\((\d+)\)\s*$`)

// FromFileName extracts the correlation id from a book file name such
// as "Foundation (42).epub". The trailing extension is stripped first;
// names without a recognizable "(<digits>)" immediately before the
// extension return ok=false. Callers skip unmatched names silently.
func FromFileName(name string) (id int64, ok bool) {
	ext := extOf(name)
	if ext == "" {
		return 0, false
	}
	return fromBase(strings.TrimSuffix(name, ext))
}

// FromSidecarName extracts the correlation id from a sidecar directory
// name such as "Foundation (42).sdr". Names not ending in the sidecar
// suffix, or without an embedded id, return ok=false.
func FromSidecarName(name string) (id int64, ok bool) {
	if !strings.HasSuffix(name, SidecarSuffix) {
		return 0, false
	}
	return fromBase(strings.TrimSuffix(name, SidecarSuffix))
}

// fromBase applies the id pattern to a name with its suffix already
// removed.
func fromBase(base string) (int64, bool) {
	m := idPattern.FindStringSubmatch(base)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		// Digit runs too long for int64, and the catalog never
		// assigns id zero.
		return 0, false
	}
	return id, true
}

// extOf returns the final dot-extension of name including the dot, or
// "" when name has none (or only a leading dot).
func extOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	return name[i:]
}
