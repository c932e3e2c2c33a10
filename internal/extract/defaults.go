package extract

import (
	"fmt"
	"strings"
)

// Building blocks shared by several patterns. All of them expect the
// normalized (lower-case) view unless noted.
const (
	// amount with optional Indian or western digit grouping; every fraction
	// digit is captured so the validator sees over-long decimals
	numberExpr = `(\d{1,3}(?:,\d{2,3})+(?:\.\d+)*|\d+(?:\.\d+)*)`

	// Follows a trailing numberExpr so a capture cannot stop inside a number.
	numberEnd = `(?:[^\d.,]|[.,](?:[^\d]|$)|$)`

	currencyPrefix = `(?:(?:rs|inr|usd)\.?\s*|₹\s*|\$\s*)?`

	// three or more digit groups ("0011 2233 4455") or one run with optional
	// hyphens; two space-separated numbers are never joined
	accountDigits = `(\d{4,6}(?:[ -]\d{4,6}){2,4}|\d[\d-]{4,24}\d)\b`

	monthExpr = `(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?`

	// Terminates a lower-case name capture: a caption that usually follows
	// the name on a slip, or the end of text.
	nameStop = `\s*(?:\b(?:amount|account|acc|date|branch|mobile|phone|signature|rs|a/c|pan)\b|$)`

	// Capitalised token run on the original-case view.
	capitalRun = `([A-Z][a-zA-Z'.]*(?:[ \t]+[A-Z][a-zA-Z'.]*)+)`
)

var numberWords = []string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
	"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
	"seventeen", "eighteen", "nineteen", "twenty", "thirty", "forty", "fifty",
	"sixty", "seventy", "eighty", "ninety", "hundred", "thousand", "lakhs", "lakh",
	"lacs", "lac", "crores", "crore", "million", "billion",
}

// wordRun captures a run of number words joined by spaces, hyphens or "and".
func wordRun() string {
	nw := `(?:` + strings.Join(numberWords, "|") + `)`
	return `(\b` + nw + `\b(?:[\s-]+\b(?:` + nw + `|and)\b)*)`
}

// refCode captures an alphanumeric code of at least lo characters that
// holds a digit, so caption words such as "number" or "date" never pass.
func refCode(lo, hi int) string {
	return fmt.Sprintf(`([a-z]{0,8}\d[a-z0-9]{%d,%d})\b`, lo-1, hi-1)
}

// DefaultTable returns a fresh copy of the built-in deposit slip table.
// Patterns within a field run from most to least specific.
func DefaultTable() *Table {
	p := func(expr string) Pattern { return MustPattern(expr, 1, Normalized) }
	orig := func(expr string) Pattern { return MustPattern(expr, 1, Original) }
	run := wordRun()

	return NewTable(
		FieldSpec{
			Name:      FieldAccountNumber,
			Validator: FieldAccountNumber,
			Cleanup:   CleanAccountNumber,
			Validate:  ValidAccountNumber,
			Patterns: []Pattern{
				p(`\b(?:account|acct|a/?c)\s*(?:number|num|no)\b\.?[\s:.#-]*` + accountDigits),
				p(`\b(?:sb|ca|od|cc|rd)\s*(?:a/?c\s*)?no\b\.?[\s:.#-]*` + accountDigits),
				p(`\b(?:account|acct|acc|a/?c)\b[\s:.#-]*` + accountDigits),
				p(`\b(\d{8,18})\s*(?:account|acct|acc|a/?c)\b`),
				p(`\b(\d{10,18})\b`),
			},
		},
		FieldSpec{
			Name:      FieldAmountNumbers,
			Validator: FieldAmountNumbers,
			Cleanup:   CleanAmount,
			Validate:  ValidAmount,
			Patterns: []Pattern{
				p(`\b(?:amount|amt)\b\.?[\s:.-]*` + currencyPrefix + numberExpr + numberEnd),
				p(`(?:\b(?:rs|inr|usd)\b\.?|₹|\$)\s*` + numberExpr + numberEnd),
				p(`\b` + numberExpr + `\s*(?:/-|\brs\b|\brupees\b|\bdollars\b|\bonly\b)`),
				p(`\bdeposit\s*of\s*` + currencyPrefix + numberExpr + numberEnd),
				p(`\b(\d{1,6}(?:\.\d+)+)\b`),
			},
		},
		FieldSpec{
			Name:      FieldAmountWords,
			Validator: FieldAmountWords,
			Cleanup:   CleanAmountWords,
			Validate:  ValidAmountWords,
			Patterns: []Pattern{
				p(`\bamount\s*in\s*words?\b[\s:.-]*(?:(?:rupees|dollars|rs\.?|inr|usd)\s*)?` + run),
				p(`\b(?:rupees|dollars)\s+` + run),
				p(run + `\s*(?:rupees|dollars|only)\b`),
				p(`\b(?:rupees|dollars|rs\.?|usd)\s+([a-z][a-z\s-]*?)\s*(?:\bonly\b|\.|$)`),
				p(`\bin\s*words?\b[\s:.-]*([a-z][a-z\s-]*?)\s*(?:\bonly\b|\.|$)`),
			},
		},
		FieldSpec{
			Name:      FieldName,
			Validator: FieldName,
			Cleanup:   CleanName,
			Validate:  ValidName,
			Patterns: []Pattern{
				orig(`(?i:\b(?:name|depositor|account\s+holder|beneficiary|pay\s+to)\b)[ \t:.\-]*` + capitalRun),
				orig(`\b(?:Mr|Mrs|Ms|Dr|MR|MRS|MS|DR)\b\.?[ \t]*` + capitalRun),
				p(`\b(?:name|depositor|account\s*holder|beneficiary|holder)\b[\s:.-]*([a-z][a-z .']{2,40}?)` + nameStop),
				p(`\b(?:mr|mrs|ms|dr)\b\.?\s*([a-z][a-z .']{2,40}?)` + nameStop),
			},
		},
		FieldSpec{
			Name:      FieldDate,
			Validator: FieldDate,
			Cleanup:   strings.TrimSpace,
			Patterns: []Pattern{
				p(`\bdate\b[\s:.-]*(\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4})\b`),
				p(`\b(\d{1,2}[/.-]\d{1,2}[/.-](?:\d{4}|\d{2}))\b`),
				p(`\b(\d{1,2}(?:st|nd|rd|th)?[\s-]*` + monthExpr + `[\s,-]*\d{2,4})\b`),
				p(`\b(` + monthExpr + `\s*\d{1,2}(?:st|nd|rd|th)?,?\s*\d{4})\b`),
			},
		},
		FieldSpec{
			Name:      FieldReference,
			Validator: FieldReference,
			Cleanup:   CleanReference,
			Patterns: []Pattern{
				p(`\b(?:ref|reference|txn|transaction)\b\.?\s*(?:no|number|id)?\b\.?[\s:.#-]*` + refCode(4, 20)),
				p(`\b(?:utr|rrn)\b\.?\s*(?:no|number)?\b\.?[\s:.#-]*` + refCode(8, 22)),
				p(`\b([a-z]{3,4}\d{6,12})\b`),
			},
		},
	)
}
