package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Source selects which view of the input text a pattern is matched against.
type Source int

const (
	// Normalized is the case-folded, whitespace-collapsed view.
	Normalized Source = iota
	// Original is the NFC text with case and line breaks preserved.
	Original
)

func (s Source) String() string {
	switch s {
	case Original:
		return "original"
	default:
		return "normalized"
	}
}

// ParseSource maps "normalized" or "original" to a Source. The empty string
// selects Normalized.
func ParseSource(s string) (Source, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normalized":
		return Normalized, true
	case "original":
		return Original, true
	}
	return Normalized, false
}

// Normalize returns the matching view used by most patterns: NFC, lower
// case, zero-width characters removed and every whitespace run (including
// newlines and tabs) collapsed to a single space.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(clean(text))), " ")
}

func clean(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFC.String(text)
	return strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
			return -1
		case '\n', '\r', '\t':
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
}

// views holds both matching views of one input, computed once per record.
type views struct {
	normalized string
	original   string
}

func newViews(text string) views {
	original := clean(text)
	return views{
		normalized: strings.Join(strings.Fields(strings.ToLower(original)), " "),
		original:   original,
	}
}

func (v views) pick(s Source) string {
	if s == Original {
		return v.original
	}
	return v.normalized
}
