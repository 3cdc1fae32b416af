package catalog

import (
	"context"
	"strconv"
	"time"
)

// FieldKind discriminates the closed variant of extra-attribute values.
type FieldKind int

const (
	// FieldAbsent marks a field with no value for this record.
	FieldAbsent FieldKind = iota
	// FieldString marks a string-valued field.
	FieldString
	// FieldInt marks an integer-valued field.
	FieldInt
)

// FieldValue is the value of one extra (custom) attribute on a record.
// It is a small closed variant rather than an open dynamic value so
// that renderer lookups stay total and typed.
type FieldValue struct {
	Kind FieldKind
	Str  string
	Int  int64
}

// StringValue returns a string-valued FieldValue.
func StringValue(s string) FieldValue { return FieldValue{Kind: FieldString, Str: s} }

// IntValue returns an integer-valued FieldValue.
func IntValue(i int64) FieldValue { return FieldValue{Kind: FieldInt, Int: i} }

// Absent returns the absent FieldValue.
func Absent() FieldValue { return FieldValue{Kind: FieldAbsent} }

// IsAbsent reports whether the value is absent.
func (v FieldValue) IsAbsent() bool { return v.Kind == FieldAbsent }

// Display returns the human-readable form of the value, "" when absent.
func (v FieldValue) Display() string {
	switch v.Kind {
	case FieldString:
		return v.Str
	case FieldInt:
		return strconv.FormatInt(v.Int, 10)
	default:
		return ""
	}
}

// Format describes one stored file format of a record.
type Format struct {
	// Tag is the upper-case format tag as recorded by the catalog,
	// e.g. "EPUB".
	Tag string

	// BaseName is the stored file's base name without extension,
	// relative to the record's storage directory.
	BaseName string
}

// Record is one catalog entry, read fresh at the start of each run and
// never mutated.
type Record struct {
	// ID is the stable numeric identity assigned by the catalog.
	// Positive, unique, never reused.
	ID int64

	Title      string
	AuthorSort string

	// Series and SeriesIndex are optional; Series == "" means the
	// record belongs to no series.
	Series      string
	SeriesIndex float64

	// LastModified is the catalog's record timestamp, compared
	// against target file modification times by the staleness check.
	LastModified time.Time

	// StoragePath is the record's directory inside the library tree,
	// relative to the library root.
	StoragePath string

	// Formats lists the record's available stored formats. Non-empty
	// for any record the catalog considers complete.
	Formats []Format

	// Extra holds the record's custom attributes keyed by column
	// label.
	Extra map[string]FieldValue
}

// FormatTags returns the record's format tags in stored order.
func (r Record) FormatTags() []string {
	tags := make([]string, len(r.Formats))
	for i, f := range r.Formats {
		tags[i] = f.Tag
	}
	return tags
}

// FormatByTag returns the stored format with the given tag.
func (r Record) FormatByTag(tag string) (Format, bool) {
	for _, f := range r.Formats {
		if f.Tag == tag {
			return f, true
		}
	}
	return Format{}, false
}

// Catalog is the read-only collaborator the convergence engine runs
// against.
type Catalog interface {
	// Enumerate returns every record ordered by id.
	Enumerate(ctx context.Context) ([]Record, error)

	// Export materializes the record's file in the given format at
	// destPath, preserving the stored file's modification time.
	// The parent directory of destPath must already exist.
	Export(ctx context.Context, rec Record, formatTag, destPath string) error

	// Close releases the catalog connection.
	Close() error
}
