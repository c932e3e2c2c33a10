package extract

import (
	"errors"
	"fmt"
	"regexp"
)

// Field names of the default table, in output order.
const (
	FieldAccountNumber = "account_number"
	FieldAmountNumbers = "amount_numbers"
	FieldAmountWords   = "amount_words"
	FieldName          = "name"
	FieldDate          = "date"
	FieldReference     = "reference"
)

// Slip details outside the record. Only DiagnosticTable carries them.
const (
	FieldBankName = "bank_name"
	FieldBranch   = "branch"
)

// ErrUnknownField is returned when an operation names a field that is not in
// the table.
var ErrUnknownField = errors.New("unknown field")

// Pattern is one candidate rule for a field: a regular expression, the
// capture group holding the value (0 for the whole match) and the text view
// it runs against.
type Pattern struct {
	Regexp *regexp.Regexp
	Group  int
	Source Source
}

// NewPattern compiles expr into a Pattern.
func NewPattern(expr string, group int, source Source) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	if group < 0 || group > re.NumSubexp() {
		return Pattern{}, fmt.Errorf("pattern %q has no capture group %d", expr, group)
	}
	return Pattern{Regexp: re, Group: group, Source: source}, nil
}

// MustPattern is like NewPattern but panics on error. It is meant for
// package-level tables.
func MustPattern(expr string, group int, source Source) Pattern {
	p, err := NewPattern(expr, group, source)
	if err != nil {
		panic(err)
	}
	return p
}

// FieldSpec describes how one field is extracted. Cleanup runs on every raw
// capture before Validate; either may be nil.
type FieldSpec struct {
	Name      string
	Patterns  []Pattern
	Cleanup   func(string) string
	Validate  func(string) bool
	Validator string // registry name of Cleanup/Validate, informational
}

func (f FieldSpec) accept(raw string) (string, bool) {
	v := raw
	if f.Cleanup != nil {
		v = f.Cleanup(v)
	}
	if v == "" {
		return "", false
	}
	if f.Validate != nil && !f.Validate(v) {
		return "", false
	}
	return v, true
}

func (f FieldSpec) clone() FieldSpec {
	f.Patterns = append([]Pattern(nil), f.Patterns...)
	return f
}

// Table is an ordered set of field specs. The zero value is an empty table
// ready to use.
type Table struct {
	specs []FieldSpec
}

// NewTable builds a table from specs, keeping their order. A later spec with
// a duplicate name replaces the earlier one in place.
func NewTable(specs ...FieldSpec) *Table {
	t := &Table{}
	for _, s := range specs {
		t.Set(s)
	}
	return t
}

// Set replaces the spec with the same name, or appends it when absent.
func (t *Table) Set(spec FieldSpec) {
	spec = spec.clone()
	if i := t.index(spec.Name); i >= 0 {
		t.specs[i] = spec
		return
	}
	t.specs = append(t.specs, spec)
}

// Prepend puts patterns ahead of the field's existing ones.
func (t *Table) Prepend(name string, patterns ...Pattern) error {
	i := t.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	merged := make([]Pattern, 0, len(patterns)+len(t.specs[i].Patterns))
	merged = append(merged, patterns...)
	t.specs[i].Patterns = append(merged, t.specs[i].Patterns...)
	return nil
}

// Append adds patterns after the field's existing ones.
func (t *Table) Append(name string, patterns ...Pattern) error {
	i := t.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	t.specs[i].Patterns = append(t.specs[i].Patterns[:len(t.specs[i].Patterns):len(t.specs[i].Patterns)], patterns...)
	return nil
}

// Remove drops a field from the table. It reports whether the field existed.
func (t *Table) Remove(name string) bool {
	i := t.index(name)
	if i < 0 {
		return false
	}
	t.specs = append(t.specs[:i:i], t.specs[i+1:]...)
	return true
}

// Field returns a copy of the named spec.
func (t *Table) Field(name string) (FieldSpec, bool) {
	i := t.index(name)
	if i < 0 {
		return FieldSpec{}, false
	}
	return t.specs[i].clone(), true
}

// Names returns field names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.specs))
	for i, s := range t.specs {
		names[i] = s.Name
	}
	return names
}

// Len returns the number of fields.
func (t *Table) Len() int { return len(t.specs) }

// Clone returns a deep copy whose pattern lists can be edited independently.
func (t *Table) Clone() *Table {
	c := &Table{specs: make([]FieldSpec, len(t.specs))}
	for i, s := range t.specs {
		c.specs[i] = s.clone()
	}
	return c
}

func (t *Table) index(name string) int {
	for i, s := range t.specs {
		if s.Name == name {
			return i
		}
	}
	return -1
}
