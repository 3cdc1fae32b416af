package render

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/shelfmark/internal/catalog"
	"github.com/roach88/shelfmark/internal/ident"
	"github.com/roach88/shelfmark/internal/profile"
)

// BaseName returns the rendered name with the correlation id appended:
// "<render> (<id>)". This is the canonical name minus the extension,
// and the sidecar directory name minus the sidecar suffix.
func BaseName(p profile.Profile, rec catalog.Record) string {
	return fmt.Sprintf("%s (%d)", Render(p, rec), rec.ID)
}

// FileName returns the full canonical target filename for a record in
// the chosen format.
func FileName(p profile.Profile, rec catalog.Record, formatTag string) string {
	return BaseName(p, rec) + "." + strings.ToLower(formatTag)
}

// SidecarDirName returns the canonical sidecar directory name for a
// record.
func SidecarDirName(p profile.Profile, rec catalog.Record) string {
	return BaseName(p, rec) + ident.SidecarSuffix
}

// Sanitize makes a rendered name safe and stable as a filename:
// NFC-normalized, filesystem-reserved characters replaced with '_',
// whitespace runs collapsed, and edges trimmed of spaces and dots.
func Sanitize(s string) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case r < 0x20, strings.ContainsRune(`/\:*?"<>|`, r):
			r = '_'
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}

	return strings.Trim(b.String(), " .")
}
