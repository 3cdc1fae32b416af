package sidecar

import (
	"regexp"
	"strings"
)

// PatchOutcome classifies what a doc_path patch did to a metadata
// file's content.
type PatchOutcome int

const (
	// PatchUnchanged means the field already held the new path.
	PatchUnchanged PatchOutcome = iota
	// PatchReplaced means the existing value span was replaced.
	PatchReplaced
	// PatchInserted means the field was absent and a new assignment
	// was inserted after the opening table marker.
	PatchInserted
	// PatchUnrecognized means no field and no table structure were
	// found; the content is returned untouched.
	PatchUnrecognized
)

// docPathPattern locates the doc_path assignment: the quoted key
// literal (bare or bracketed), '=', and the quoted value. Group 2 is
// the value span.
var docPathPattern = regexp.MustCompile(`(\[?"doc_path"\]?\s*=\s*)"((?:\\.|[^"\\])*)"`)

// tableOpenPattern locates the opening table marker a repair insertion
// goes after: the first '{' of the top-level table literal.
var tableOpenPattern = regexp.MustCompile(`(?m)^\s*(?:return\s*)?\{`)

// PatchDocPath rewrites the doc_path value in a metadata file's
// content to newPath, preserving every byte outside the value span.
//
// When the field is absent but the content has a recognizable opening
// table marker, an assignment is inserted immediately after the marker
// as a best-effort repair. Content with no recognizable structure is
// returned unchanged with PatchUnrecognized.
func PatchDocPath(content, newPath string) (string, PatchOutcome) {
	if loc := docPathPattern.FindStringSubmatchIndex(content); loc != nil {
		valStart, valEnd := loc[4], loc[5]
		if unescapeLua(content[valStart:valEnd]) == newPath {
			return content, PatchUnchanged
		}
		return content[:valStart] + escapeLua(newPath) + content[valEnd:], PatchReplaced
	}

	if loc := tableOpenPattern.FindStringIndex(content); loc != nil {
		insertAt := loc[1]
		assignment := "\n    [\"doc_path\"] = \"" + escapeLua(newPath) + "\","
		return content[:insertAt] + assignment + content[insertAt:], PatchInserted
	}

	return content, PatchUnrecognized
}

// escapeLua escapes a path for embedding in a double-quoted string
// literal.
func escapeLua(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// unescapeLua reverses escapeLua for value comparison.
func unescapeLua(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
