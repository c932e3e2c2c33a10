package extract

// bankPrefix lists banks whose name OCR tends to keep as a short code.
const bankPrefix = `(?:hdfc|icici|sbi|axis|pnb|canara|union|kotak|idbi|yes|indian|central)`

// branchStop ends a branch capture at the next caption or the end of text.
const branchStop = `[ \t]*(?:\b(?:date|dt|ifsc|code|a/c|account|acc|name|depositor|mobile|phone)\b|[,;|]|$)`

// DetailFields returns the specs for the bank and branch printed on a slip.
// They help when reviewing a transcription but are not part of a record.
func DetailFields() []FieldSpec {
	p := func(expr string) Pattern { return MustPattern(expr, 1, Normalized) }
	return []FieldSpec{
		{
			Name:      FieldBankName,
			Validator: FieldBankName,
			Cleanup:   CleanDetail,
			Validate:  ValidBankName,
			Patterns: []Pattern{
				p(`\b(state\s+bank\s+of\s+[a-z]+)\b`),
				p(`\b(` + bankPrefix + `\s*bank)\b`),
				p(`\b([a-z]+(?:\s+[a-z]+){0,2}\s+bank)\b`),
			},
		},
		{
			Name:      FieldBranch,
			Validator: FieldBranch,
			Cleanup:   CleanDetail,
			Validate:  ValidBranch,
			Patterns: []Pattern{
				p(`\bbranch\b\s*(?:name)?[\s:.-]*([a-z][a-z .'-]{1,40}?)` + branchStop),
				p(`(?:\bbank\s+)?\b([a-z]+(?:\s+[a-z]+)?)\s+branch\b`),
			},
		},
	}
}

// DiagnosticTable returns a copy of t extended with the DetailFields it does
// not already define.
func DiagnosticTable(t *Table) *Table {
	if t == nil {
		t = DefaultTable()
	}
	out := t.Clone()
	for _, spec := range DetailFields() {
		if out.index(spec.Name) < 0 {
			out.Set(spec)
		}
	}
	return out
}
