package extract

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// ErrUnknownValidator is returned when a pattern file names a validator that
// is not registered.
var ErrUnknownValidator = errors.New("unknown validator")

const (
	minAccountDigits = 6
	maxAccountDigits = 18
	minNameLength    = 3
	minWordsLength   = 3
)

var (
	decimalAmount = regexp.MustCompile(`^\d+(?:\.\d{1,2})?$`)

	// Label words that show a words-amount match bled into the slip's
	// printed captions.
	amountWordLabels = wordSet("branch", "bank", "slip", "deposit", "account", "signature")

	nameLabels = wordSet("branch", "bank", "slip", "deposit", "amount", "account",
		"number", "date", "reference", "mobile", "signature")

	currencyWords = wordSet("rupees", "rupee", "dollars", "dollar", "rs", "inr", "usd", "only")

	// Captions that never belong to a bank or branch name.
	detailLabels = wordSet("slip", "deposit", "amount", "account", "number", "date",
		"name", "depositor", "signature", "cash", "cheque", "rupees", "only",
		"paid", "at", "in", "to", "by", "from", "for", "with")

	bankWords = wordSet("bank", "branch")
)

// Rule pairs a cleanup with a validator under a registry name.
type Rule struct {
	Cleanup  func(string) string
	Validate func(string) bool
}

var rules = map[string]Rule{
	FieldAccountNumber: {Cleanup: CleanAccountNumber, Validate: ValidAccountNumber},
	FieldAmountNumbers: {Cleanup: CleanAmount, Validate: ValidAmount},
	FieldAmountWords:   {Cleanup: CleanAmountWords, Validate: ValidAmountWords},
	FieldName:          {Cleanup: CleanName, Validate: ValidName},
	FieldDate:          {Cleanup: strings.TrimSpace},
	FieldReference:     {Cleanup: CleanReference},
	FieldBankName:      {Cleanup: CleanDetail, Validate: ValidBankName},
	FieldBranch:        {Cleanup: CleanDetail, Validate: ValidBranch},
	"none":             {Cleanup: strings.TrimSpace},
}

// LookupRule returns the registered cleanup/validator pair.
func LookupRule(name string) (Rule, error) {
	r, ok := rules[name]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownValidator, name, strings.Join(RuleNames(), ", "))
	}
	return r, nil
}

// RuleNames lists registered validator names, sorted.
func RuleNames() []string {
	names := make([]string, 0, len(rules))
	for n := range rules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CleanAccountNumber strips the separators OCR commonly leaves inside long
// account numbers.
func CleanAccountNumber(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// ValidAccountNumber reports whether s is 6 to 18 decimal digits.
func ValidAccountNumber(s string) bool {
	if len(s) < minAccountDigits || len(s) > maxAccountDigits {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CleanAmount drops thousands separators.
func CleanAmount(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}

// ValidAmount reports whether s is a non-negative decimal with at most two
// fractional digits.
func ValidAmount(s string) bool {
	return decimalAmount.MatchString(s)
}

// CleanAmountWords collapses whitespace and trims currency words and "only"
// from both ends.
func CleanAmountWords(s string) string {
	words := strings.Fields(s)
	for len(words) > 0 && currencyWords[strings.Trim(words[0], ".:")] {
		words = words[1:]
	}
	for len(words) > 0 && currencyWords[strings.Trim(words[len(words)-1], ".:")] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// ValidAmountWords rejects short spans and spans containing slip captions.
func ValidAmountWords(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) > minWordsLength && !containsWord(s, amountWordLabels)
}

// CleanName collapses whitespace, cuts the run at the first caption word
// that followed the name on the same line and trims stray punctuation.
func CleanName(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if containsWord(w, nameLabels) {
			words = words[:i]
			break
		}
	}
	return strings.Trim(strings.Join(words, " "), " .,:;-'")
}

// ValidName requires at least two tokens, three characters and no label
// words.
func ValidName(s string) bool {
	if len(s) < minNameLength || len(strings.Fields(s)) < 2 {
		return false
	}
	return !containsWord(s, nameLabels)
}

// CleanReference upper-cases the code.
func CleanReference(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// CleanDetail collapses whitespace and trims punctuation around a bank or
// branch name.
func CleanDetail(s string) string {
	return strings.Trim(strings.Join(strings.Fields(s), " "), " .,:;-'")
}

// ValidBankName requires a qualifier before "bank" and no slip captions.
func ValidBankName(s string) bool {
	return len(strings.Fields(s)) >= 2 && !containsWord(s, detailLabels)
}

// ValidBranch requires two letters and no slip captions or bank words.
func ValidBranch(s string) bool {
	return len(s) >= 2 && !containsWord(s, detailLabels) && !containsWord(s, bankWords)
}

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// containsWord matches whole words case-insensitively, so "Dateline" does
// not trip the "date" label.
func containsWord(s string, set map[string]bool) bool {
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if set[w] {
			return true
		}
	}
	return false
}
