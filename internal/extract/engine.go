package extract

import (
	"fmt"
	"time"
)

// Record is the structured result for one document. Every field of the
// engine's table is present in Fields; an empty value means "not found".
type Record struct {
	Fields      map[string]string `json:"fields"`
	Order       []string          `json:"-"`
	RawText     string            `json:"raw_text"`
	ProcessedAt time.Time         `json:"processed_timestamp"`
}

// Get returns the value of a field, or "" when absent.
func (r Record) Get(name string) string {
	return r.Fields[name]
}

// Found returns the names of fields with a non-empty value, in table order.
func (r Record) Found() []string {
	var out []string
	for _, n := range r.Order {
		if r.Fields[n] != "" {
			out = append(out, n)
		}
	}
	return out
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for Record.ProcessedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine extracts records using a private copy of a pattern table. It holds
// no mutable state, so one Engine may serve concurrent callers.
type Engine struct {
	table *Table
	now   func() time.Time
}

// NewEngine copies table; later edits to the caller's table do not affect
// the engine. A nil table selects DefaultTable.
func NewEngine(table *Table, opts ...Option) *Engine {
	if table == nil {
		table = DefaultTable()
	}
	e := &Engine{table: table.Clone(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Table returns a copy of the engine's table.
func (e *Engine) Table() *Table { return e.table.Clone() }

// Fields returns the field names in output order.
func (e *Engine) Fields() []string { return e.table.Names() }

// Extract maps raw OCR text to a record. It never fails; the empty string
// yields a record with every field empty.
func (e *Engine) Extract(text string) Record {
	v := newViews(text)
	rec := Record{
		Fields:      make(map[string]string, e.table.Len()),
		Order:       e.table.Names(),
		RawText:     text,
		ProcessedAt: e.now(),
	}
	for _, spec := range e.table.specs {
		rec.Fields[spec.Name] = firstAccepted(spec, v)
	}
	return rec
}

// ExtractField runs a single field of the table against text.
func (e *Engine) ExtractField(name, text string) (string, error) {
	i := e.table.index(name)
	if i < 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return firstAccepted(e.table.specs[i], newViews(text)), nil
}

// firstAccepted walks patterns in order and returns the first match that
// survives cleanup and validation. A pattern whose matches are all rejected
// hands over to the next pattern.
func firstAccepted(spec FieldSpec, v views) string {
	for _, p := range spec.Patterns {
		for _, m := range p.Regexp.FindAllStringSubmatch(v.pick(p.Source), -1) {
			if p.Group >= len(m) {
				continue
			}
			if val, ok := spec.accept(m[p.Group]); ok {
				return val
			}
		}
	}
	return ""
}

// Candidates is the collect-all diagnostic mode: every accepted value from
// every pattern, deduplicated in first-seen order. It applies the same
// cleanup and validation as Extract, so the first candidate of each field
// equals the value Extract would report.
func (e *Engine) Candidates(text string) map[string][]string {
	v := newViews(text)
	out := make(map[string][]string, e.table.Len())
	for _, spec := range e.table.specs {
		seen := make(map[string]bool)
		vals := []string{}
		for _, p := range spec.Patterns {
			for _, m := range p.Regexp.FindAllStringSubmatch(v.pick(p.Source), -1) {
				if p.Group >= len(m) {
					continue
				}
				val, ok := spec.accept(m[p.Group])
				if !ok || seen[val] {
					continue
				}
				seen[val] = true
				vals = append(vals, val)
			}
		}
		out[spec.Name] = vals
	}
	return out
}
