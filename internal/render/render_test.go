package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/shelfmark/internal/catalog"
	"github.com/roach88/shelfmark/internal/profile"
)

func testRecord() catalog.Record {
	return catalog.Record{
		ID:          42,
		Title:       "Foundation",
		AuthorSort:  "Asimov, Isaac",
		Series:      "Foundation",
		SeriesIndex: 1,
		Extra: map[string]catalog.FieldValue{
			"shelf":     catalog.StringValue("keepers"),
			"readorder": catalog.IntValue(3),
		},
	}
}

func TestRender_DefaultTemplate(t *testing.T) {
	got := Render(profile.Default(), testRecord())
	assert.Equal(t, "Foundation - Asimov, Isaac", got)
}

func TestRender_Templates(t *testing.T) {
	rec := testRecord()

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"bare fields", "{title} by {author_sort}", "Foundation by Asimov, Isaac"},
		{"extra string field", "{title} [{shelf}]", "Foundation [keepers]"},
		{"extra int field", "{readorder} {title}", "3 Foundation"},
		{"unknown field empty", "{title}{nope}", "Foundation"},
		{"conditional present", "{series:| (| series)}", "(Foundation series)"},
		{"nested segment in conditional", "{title}{series:| [| #{series_index}]}", "Foundation [Foundation #1]"},
		{"id field", "{title}-{id}", "Foundation-42"},
		{"literal text only", "shelf", "shelf"},
		{"unclosed brace kept literally", "{title", "{title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := profile.Default()
			p.Template = tt.template
			assert.Equal(t, tt.want, Render(p, rec))
		})
	}
}

func TestRender_ConditionalAbsentField(t *testing.T) {
	rec := testRecord()
	rec.Series = ""

	p := profile.Default()
	p.Template = "{title}{series:| [| #{series_index}]}"

	// Both the conditional and the series_index inside it collapse.
	assert.Equal(t, "Foundation", Render(p, rec))
}

func TestRender_Remap(t *testing.T) {
	rec := testRecord()
	p := profile.Default()
	p.Template = "{series}"
	p.Remaps = map[string]map[string]string{
		"series": {"Foundation": "Foundation Saga"},
	}

	assert.Equal(t, "Foundation Saga", Render(p, rec))
}

func TestRender_Idempotent(t *testing.T) {
	p := profile.Default()
	rec := testRecord()
	first := Render(p, rec)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, Render(p, rec))
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"passthrough", "Foundation - Asimov, Isaac", "Foundation - Asimov, Isaac"},
		{"reserved characters", `a/b\c:d*e?f"g<h>i|j`, "a_b_c_d_e_f_g_h_i_j"},
		{"whitespace collapsed", "a  b\t c", "a b c"},
		{"edges trimmed", " . name . ", "name"},
		{"control characters", "a\x01b", "a_b"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func TestSanitize_NFCStable(t *testing.T) {
	// "é" composed vs decomposed must normalize to the same bytes.
	composed := "Café"
	decomposed := "Café"
	assert.Equal(t, Sanitize(composed), Sanitize(decomposed))
}

func TestNames(t *testing.T) {
	p := profile.Default()
	rec := testRecord()

	assert.Equal(t, "Foundation - Asimov, Isaac (42)", BaseName(p, rec))
	assert.Equal(t, "Foundation - Asimov, Isaac (42).epub", FileName(p, rec, "EPUB"))
	assert.Equal(t, "Foundation - Asimov, Isaac (42).sdr", SidecarDirName(p, rec))
}

func TestFileName_LowercasesExtension(t *testing.T) {
	assert.Equal(t, "Foundation - Asimov, Isaac (42).pdf",
		FileName(profile.Default(), testRecord(), "PDF"))
}
