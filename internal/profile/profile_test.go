package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	p := Default()
	require.NoError(t, p.validate())
	assert.Equal(t, "EPUB", p.FormatPreference[0])
	assert.Equal(t, "metadata.epub.lua", p.SidecarMetadataNames[0])
}

func TestChooseFormat(t *testing.T) {
	p := Default()

	tests := []struct {
		name      string
		available []string
		want      string
		wantOK    bool
	}{
		{"prefers epub over pdf", []string{"PDF", "EPUB"}, "EPUB", true},
		{"falls back to pdf", []string{"PDF", "DJVU"}, "PDF", true},
		{"case insensitive availability", []string{"epub"}, "EPUB", true},
		{"no intersection", []string{"DJVU", "DOCX"}, "", false},
		{"empty availability", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.ChooseFormat(tt.available)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSupportedExtensions(t *testing.T) {
	p := Profile{FormatPreference: []string{"EPUB", "PDF"}}
	assert.Equal(t, []string{".epub", ".pdf"}, p.SupportedExtensions())
}

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullProfile(t *testing.T) {
	path := writeProfile(t, `
profile: {
	template: "{title}{series:| [| #{series_index}]} - {author_sort}"
	formats: ["EPUB", "PDF"]
	sidecar_metadata: ["metadata.epub.lua", "metadata.lua"]
	remap: series: "A Song of Ice and Fire": "ASOIAF"
}
`)

	p, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "{title}{series:| [| #{series_index}]} - {author_sort}", p.Template)
	assert.Equal(t, []string{"EPUB", "PDF"}, p.FormatPreference)
	assert.Equal(t, []string{"metadata.epub.lua", "metadata.lua"}, p.SidecarMetadataNames)
	assert.Equal(t, "ASOIAF", p.RemapValue("series", "A Song of Ice and Fire"))
	assert.Equal(t, "Dune", p.RemapValue("series", "Dune"))
}

func TestLoad_PartialProfileKeepsDefaults(t *testing.T) {
	path := writeProfile(t, `
profile: formats: ["PDF"]
`)

	p, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, Default().Template, p.Template)
	assert.Equal(t, []string{"PDF"}, p.FormatPreference)
	assert.Equal(t, Default().SidecarMetadataNames, p.SidecarMetadataNames)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing profile struct", `other: {}`},
		{"template wrong type", `profile: template: 42`},
		{"formats wrong type", `profile: formats: "EPUB"`},
		{"empty formats", `profile: formats: []`},
		{"lower-case format tag", `profile: formats: ["epub"]`},
		{"syntax error", `profile: {`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeProfile(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
}
