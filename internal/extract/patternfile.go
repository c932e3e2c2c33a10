package extract

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Overlay modes for a pattern file entry.
const (
	ModeReplace = "replace"
	ModeAppend  = "append"
	ModePrepend = "prepend"
)

// PatternFile is the YAML form of a table overlay.
//
//	fields:
//	  - name: reference
//	    mode: prepend
//	    patterns:
//	      - expr: 'slip\s*no[\s:.-]*([0-9]{4,12})'
type PatternFile struct {
	Fields []PatternFileField `yaml:"fields"`
}

// PatternFileField overlays one field.
type PatternFileField struct {
	Name      string             `yaml:"name"`
	Mode      string             `yaml:"mode"`
	Validator string             `yaml:"validator"`
	Patterns  []PatternFileEntry `yaml:"patterns"`
}

// PatternFileEntry is one pattern. Group defaults to 1 and Source to
// normalized.
type PatternFileEntry struct {
	Expr   string `yaml:"expr"`
	Group  *int   `yaml:"group"`
	Source string `yaml:"source"`
}

// LoadPatternFile reads and parses a YAML pattern file.
func LoadPatternFile(path string) (*PatternFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read pattern file: %w", err)
	}
	pf, err := ParsePatternFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pf, nil
}

// ParsePatternFile parses YAML and checks every entry compiles.
func ParsePatternFile(data []byte) (*PatternFile, error) {
	var pf PatternFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse pattern file: %w", err)
	}
	for i, f := range pf.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("fields[%d]: name is required", i)
		}
		switch f.mode() {
		case ModeReplace, ModeAppend, ModePrepend:
		default:
			return nil, fmt.Errorf("field %s: invalid mode %q", f.Name, f.Mode)
		}
		if f.Validator != "" {
			if _, err := LookupRule(f.Validator); err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
		if _, err := f.compile(); err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	return &pf, nil
}

func (f PatternFileField) mode() string {
	if f.Mode == "" {
		return ModeReplace
	}
	return strings.ToLower(f.Mode)
}

func (f PatternFileField) compile() ([]Pattern, error) {
	out := make([]Pattern, 0, len(f.Patterns))
	for i, e := range f.Patterns {
		src, ok := ParseSource(e.Source)
		if !ok {
			return nil, fmt.Errorf("patterns[%d]: invalid source %q", i, e.Source)
		}
		group := 1
		if e.Group != nil {
			group = *e.Group
		}
		p, err := NewPattern(e.Expr, group, src)
		if err != nil {
			return nil, fmt.Errorf("patterns[%d]: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Apply edits t in file order. Replace on an unknown field adds it to the
// end of the table; append and prepend require the field to exist.
func (pf *PatternFile) Apply(t *Table) error {
	for _, f := range pf.Fields {
		patterns, err := f.compile()
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		switch f.mode() {
		case ModeAppend:
			err = t.Append(f.Name, patterns...)
		case ModePrepend:
			err = t.Prepend(f.Name, patterns...)
		default:
			t.Set(replaceSpec(t, f, patterns))
		}
		if err != nil {
			return err
		}
		if f.Validator != "" && f.mode() != ModeReplace {
			if err := setRule(t, f.Name, f.Validator); err != nil {
				return err
			}
		}
	}
	return nil
}

func replaceSpec(t *Table, f PatternFileField, patterns []Pattern) FieldSpec {
	spec, ok := t.Field(f.Name)
	if !ok {
		spec = FieldSpec{Name: f.Name, Validator: "none", Cleanup: rules["none"].Cleanup}
	}
	spec.Patterns = patterns
	if f.Validator != "" {
		r := rules[f.Validator]
		spec.Validator, spec.Cleanup, spec.Validate = f.Validator, r.Cleanup, r.Validate
	}
	return spec
}

func setRule(t *Table, name, validator string) error {
	r, err := LookupRule(validator)
	if err != nil {
		return err
	}
	i := t.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	t.specs[i].Validator, t.specs[i].Cleanup, t.specs[i].Validate = validator, r.Cleanup, r.Validate
	return nil
}

// LoadTable returns DefaultTable with the pattern file at path applied. An
// empty path returns DefaultTable unchanged.
func LoadTable(path string) (*Table, error) {
	t := DefaultTable()
	if path == "" {
		return t, nil
	}
	pf, err := LoadPatternFile(path)
	if err != nil {
		return nil, err
	}
	if err := pf.Apply(t); err != nil {
		return nil, fmt.Errorf("apply %s: %w", path, err)
	}
	return t, nil
}
