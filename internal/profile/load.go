package profile

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"
)

// LoadError is a profile loading failure with an optional CUE file
// position.
type LoadError struct {
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Load reads the profile from a CUE file. Fields not present fall back
// to the defaults, so a profile file only has to state what it
// changes:
//
//	profile: {
//		template: "{title}{series:| [| #{series_index}]} - {author_sort}"
//		formats: ["EPUB", "PDF"]
//		remap: series: "A Song of Ice and Fire": "ASOIAF"
//	}
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return Profile{}, &LoadError{Message: fmt.Sprintf("compile profile: %v", err)}
	}

	root := value.LookupPath(cue.ParsePath("profile"))
	if !root.Exists() {
		return Profile{}, &LoadError{Message: "missing top-level profile struct", Pos: value.Pos()}
	}

	p := Default()

	if v := root.LookupPath(cue.ParsePath("template")); v.Exists() {
		p.Template, err = v.String()
		if err != nil {
			return Profile{}, &LoadError{Message: fmt.Sprintf("template: %v", err), Pos: v.Pos()}
		}
	}

	if v := root.LookupPath(cue.ParsePath("formats")); v.Exists() {
		p.FormatPreference, err = stringList(v)
		if err != nil {
			return Profile{}, &LoadError{Message: fmt.Sprintf("formats: %v", err), Pos: v.Pos()}
		}
	}

	if v := root.LookupPath(cue.ParsePath("sidecar_metadata")); v.Exists() {
		p.SidecarMetadataNames, err = stringList(v)
		if err != nil {
			return Profile{}, &LoadError{Message: fmt.Sprintf("sidecar_metadata: %v", err), Pos: v.Pos()}
		}
	}

	if v := root.LookupPath(cue.ParsePath("remap")); v.Exists() {
		p.Remaps, err = remapTable(v)
		if err != nil {
			return Profile{}, &LoadError{Message: fmt.Sprintf("remap: %v", err), Pos: v.Pos()}
		}
	}

	if err := p.validate(); err != nil {
		return Profile{}, &LoadError{Message: err.Error(), Pos: root.Pos()}
	}

	return p, nil
}

// stringList decodes a CUE list of strings.
func stringList(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, err
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// remapTable decodes the two-level field -> value -> replacement map.
func remapTable(v cue.Value) (map[string]map[string]string, error) {
	fields, err := v.Fields()
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]string)
	for fields.Next() {
		inner, err := fields.Value().Fields()
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fields.Selector(), err)
		}
		m := make(map[string]string)
		for inner.Next() {
			s, err := inner.Value().String()
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", fields.Selector(), err)
			}
			m[labelString(inner.Selector())] = s
		}
		out[labelString(fields.Selector())] = m
	}
	return out, nil
}

// labelString returns the plain text of a struct field label, whether
// it was written as an identifier or a quoted string.
func labelString(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}
