// Package extract turns a single unsegmented OCR transcription of a bank
// deposit slip into a structured record.
//
// Each field owns an ordered list of candidate patterns. Patterns are tried
// in order and the first match whose cleaned value passes the field's
// validator wins; later patterns are only consulted when every match of the
// earlier ones was rejected. A field with no accepted match is reported as
// the empty string.
//
// The pattern table is a plain value owned by an Engine. Callers customise
// extraction by cloning DefaultTable, editing it (directly or through a YAML
// pattern file) and handing it to NewEngine.
package extract
