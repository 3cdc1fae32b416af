package render

import (
	"strconv"
	"strings"

	"github.com/roach88/shelfmark/internal/catalog"
	"github.com/roach88/shelfmark/internal/profile"
)

// Render produces the sanitized human-readable base name for a record,
// without the correlation id or extension.
func Render(p profile.Profile, rec catalog.Record) string {
	raw := renderTemplate(p.Template, func(field string) string {
		return p.RemapValue(field, lookupField(rec, field))
	})
	return Sanitize(raw)
}

// renderTemplate expands every substitution segment in tmpl using
// lookup. Malformed segments (unclosed braces) are kept literally so
// rendering stays total.
func renderTemplate(tmpl string, lookup func(string) string) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		b.WriteString(tmpl[:open])
		rest := tmpl[open:]

		body, length, ok := matchSegment(rest)
		if !ok {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(renderSegment(body, lookup))
		tmpl = rest[length:]
	}
}

// matchSegment matches a brace-balanced "{...}" at the start of s and
// returns its body and total length.
func matchSegment(s string) (body string, length int, ok bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[1:i], i + 1, true
			}
		}
	}
	return "", 0, false
}

// renderSegment expands one segment body: either a bare field name or
// "name:|pre|post" where pre and post are nested templates rendered
// only when the field has a non-empty value.
func renderSegment(body string, lookup func(string) string) string {
	name, cond, conditional := strings.Cut(body, ":")
	value := lookup(strings.TrimSpace(name))
	if !conditional {
		return value
	}

	pre, post, ok := splitCondition(cond)
	if !ok {
		// Not the |pre|post shape; treat the whole segment as a
		// bare field.
		return value
	}
	if value == "" {
		return ""
	}
	return renderTemplate(pre, lookup) + value + renderTemplate(post, lookup)
}

// splitCondition splits "|pre|post" on pipes outside nested braces.
func splitCondition(s string) (pre, post string, ok bool) {
	if len(s) == 0 || s[0] != '|' {
		return "", "", false
	}
	depth := 0
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		case '|':
			if depth == 0 {
				return s[1:i], s[i+1:], true
			}
		}
	}
	return "", "", false
}

// lookupField resolves a template field against a record. Built-in
// fields first, then the record's extra attributes; unknown or absent
// fields resolve to "".
func lookupField(rec catalog.Record, field string) string {
	switch field {
	case "title":
		return rec.Title
	case "author_sort":
		return rec.AuthorSort
	case "series":
		return rec.Series
	case "series_index":
		if rec.Series == "" {
			return ""
		}
		return strconv.FormatFloat(rec.SeriesIndex, 'f', -1, 64)
	case "id":
		return strconv.FormatInt(rec.ID, 10)
	}
	if v, ok := rec.Extra[field]; ok {
		return v.Display()
	}
	return ""
}
