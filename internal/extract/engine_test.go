package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2025, 8, 24, 10, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(DefaultTable(), WithClock(func() time.Time { return fixedTime }))
}

func TestExtract_EndToEndSlip(t *testing.T) {
	e := newTestEngine(t)
	text := "Account Number: 1234567890123\nAmount: Rs. 15,750.50\nName: John Michael Smith\nDate: 24/08/2025"

	rec := e.Extract(text)

	assert.Equal(t, "1234567890123", rec.Get(FieldAccountNumber))
	assert.Equal(t, "15750.50", rec.Get(FieldAmountNumbers))
	assert.Equal(t, "John Michael Smith", rec.Get(FieldName))
	assert.Equal(t, "24/08/2025", rec.Get(FieldDate))
	assert.Empty(t, rec.Get(FieldAmountWords))
	assert.Empty(t, rec.Get(FieldReference))
	assert.Equal(t, text, rec.RawText)
	assert.Equal(t, fixedTime, rec.ProcessedAt)
}

func TestExtract_NoRecognisableLabels(t *testing.T) {
	e := newTestEngine(t)
	rec := e.Extract("Signature: ________________")

	require.Len(t, rec.Fields, 6)
	for name, v := range rec.Fields {
		assert.Empty(t, v, name)
	}
	assert.Empty(t, rec.Found())
}

func TestExtract_EmptyInput(t *testing.T) {
	e := newTestEngine(t)
	rec := e.Extract("")

	assert.Equal(t, e.Fields(), rec.Order)
	require.Len(t, rec.Fields, 6)
	for _, v := range rec.Fields {
		assert.Empty(t, v)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	e := newTestEngine(t)
	text := "A/C No 00112233445566 Rs 2,500/- Mr. Anil Sharma Ref: TX12345 Dt 01-02-2024"
	first := e.Extract(text)
	for range 10 {
		assert.Equal(t, first, e.Extract(text))
	}
}

func TestExtract_FallsThroughRejectedPattern(t *testing.T) {
	table := NewTable(FieldSpec{
		Name:     "acct",
		Cleanup:  CleanAccountNumber,
		Validate: ValidAccountNumber,
		Patterns: []Pattern{
			MustPattern(`acct\s*(\d+)`, 1, Normalized),
			MustPattern(`\b(\d{10})\b`, 1, Normalized),
		},
	})
	e := NewEngine(table)

	assert.Equal(t, "9876543210", e.Extract("ACCT 12345 customer 9876543210").Get("acct"))
}

func TestExtract_DefaultAccountFallthrough(t *testing.T) {
	e := newTestEngine(t)
	// the labelled candidate has only five digits once separators go
	rec := e.Extract("A/C No: 12-34-5 customer id 9876543210")
	assert.Equal(t, "9876543210", rec.Get(FieldAccountNumber))
}

func TestExtract_AccountGroupsStayWithinField(t *testing.T) {
	e := newTestEngine(t)
	rec := e.Extract("A/C No: 12345 1500 Amount 20.00")

	assert.Empty(t, rec.Get(FieldAccountNumber))
	assert.Equal(t, "20.00", rec.Get(FieldAmountNumbers))
}

func TestExtract_Amounts(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labelled with currency", "Amount: Rs. 15,750.50", "15750.50"},
		{"indian grouping", "Rs 1,00,000/-", "100000"},
		{"rupee sign", "deposit of ₹ 2500", "2500"},
		{"only suffix", "total 500.00 only", "500.00"},
		{"bare decimal", "paid 1234.56 today", "1234.56"},
		{"three decimals are not cut", "Amount: 1500.555", ""},
		{"grouped three decimals are not cut", "Amount: Rs. 12,345.678 only", ""},
		{"dotted date is no amount", "paid on 24.08.2025", ""},
		{"sentence full stop", "Deposited Rs. 500.", "500"},
		{"nothing", "cash deposit", ""},
	}
	e := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text).Get(FieldAmountNumbers))
		})
	}
}

func TestExtract_AmountWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			"amount in words label",
			"Amount in words: Rupees Fifteen Thousand Seven Hundred Fifty Only",
			"fifteen thousand seven hundred fifty",
		},
		{"rupees prefix", "rupees two lakh and fifty thousand only", "two lakh and fifty thousand"},
		{"only suffix", "five hundred only", "five hundred"},
		{
			"label bleed falls through",
			"Rs. Bank Deposit Slip only. total in words: fiftee thousnd only",
			"fiftee thousnd",
		},
	}
	e := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text).Get(FieldAmountWords))
		})
	}
}

func TestExtract_Names(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"upper case depositor", "Depositor: RAVI KUMAR\nAmount: 500", "RAVI KUMAR"},
		{"lower case falls back to normalized", "name: john smith amount: 500", "john smith"},
		{"caption on same line keeps case", "Name: John Smith Amount: 500", "John Smith"},
		{"account caption after name", "Name: John Smith Account Number: 1234567890", "John Smith"},
		{"title", "Mr. Anil Sharma", "Anil Sharma"},
		{"bank is not a name", "Name: Bank Of India", ""},
	}
	e := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text).Get(FieldName))
		})
	}
}

func TestExtract_Dates(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Date: 24/08/2025", "24/08/2025"},
		{"dated 5-9-24", "5-9-24"},
		{"on 24 August 2025", "24 august 2025"},
		{"Aug 24, 2025", "aug 24, 2025"},
	}
	e := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text).Get(FieldDate))
		})
	}
}

func TestExtract_References(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Ref No: ab12cd34", "AB12CD34"},
		{"UTR 123456789012", "123456789012"},
		{"txn id: 98765", "98765"},
		{"Reference Number: ________ Name: John Smith", ""},
		{"Txn Date: 24/08/2025", ""},
		{"UTR Number: pending", ""},
	}
	e := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text).Get(FieldReference))
		})
	}
}

func TestExtractField(t *testing.T) {
	e := newTestEngine(t)

	v, err := e.ExtractField(FieldDate, "Date: 01.02.2024")
	require.NoError(t, err)
	assert.Equal(t, "01.02.2024", v)

	_, err = e.ExtractField("ifsc", "x")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestEngine_CopiesTable(t *testing.T) {
	table := DefaultTable()
	e := NewEngine(table)

	require.True(t, table.Remove(FieldName))
	assert.Contains(t, e.Fields(), FieldName)
	assert.Equal(t, "Anil Sharma", e.Extract("Mr. Anil Sharma").Get(FieldName))
}

func TestEngine_CustomField(t *testing.T) {
	table := DefaultTable()
	table.Set(FieldSpec{
		Name:     "ifsc",
		Cleanup:  CleanReference,
		Patterns: []Pattern{MustPattern(`\bifsc\b[\s:.-]*([a-z]{4}0[a-z0-9]{6})`, 1, Normalized)},
	})
	e := NewEngine(table)

	rec := e.Extract("IFSC: SBIN0001234")
	assert.Equal(t, "SBIN0001234", rec.Get("ifsc"))
	assert.Equal(t, "ifsc", rec.Order[len(rec.Order)-1])
}

func TestCandidates(t *testing.T) {
	e := newTestEngine(t)
	text := "Account No 123456789012 and account 987654321098"

	c := e.Candidates(text)

	assert.Equal(t, []string{"123456789012", "987654321098"}, c[FieldAccountNumber])
	assert.Equal(t, e.Extract(text).Get(FieldAccountNumber), c[FieldAccountNumber][0])
	require.Contains(t, c, FieldReference)
	assert.Empty(t, c[FieldReference])
}

func TestExtract_NoisySlip(t *testing.T) {
	e := newTestEngine(t)
	text := "STATE BANK DEPOSIT SLIP\nBranch: MG Road  Date 05-09-24\n" +
		"A/C No. 0011 2233 4455\nDepositor: PRIYA NAIR\n" +
		"Rs 2,500/-\nRupees Two Thousand Five Hundred Only\nRef No: TXN7788123"

	rec := e.Extract(text)

	assert.Equal(t, map[string]string{
		FieldAccountNumber: "001122334455",
		FieldAmountNumbers: "2500",
		FieldAmountWords:   "two thousand five hundred",
		FieldName:          "PRIYA NAIR",
		FieldDate:          "05-09-24",
		FieldReference:     "TXN7788123",
	}, rec.Fields)
}

func TestDiagnosticTable_Details(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		bank   string
		branch string
	}{
		{"state bank of", "State Bank of India\nBranch: Andheri East, Mumbai", "state bank of india", "andheri east"},
		{"short code", "HDFC Bank  Koramangala Branch", "hdfc bank", "koramangala"},
		{"caption stops branch", "Branch Name: MG Road Date: 05-09-24", "", "mg road"},
		{"slip caption is no bank", "Bank Deposit Slip", "", ""},
	}
	e := NewEngine(DiagnosticTable(nil))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.Extract(tt.text)
			assert.Equal(t, tt.bank, rec.Get(FieldBankName))
			assert.Equal(t, tt.branch, rec.Get(FieldBranch))
		})
	}
}

func TestDiagnosticTable_KeepsRecordFields(t *testing.T) {
	base := DefaultTable()
	diag := DiagnosticTable(base)

	assert.Equal(t, append(base.Names(), FieldBankName, FieldBranch), diag.Names())
	assert.Len(t, base.Names(), 6)

	// an existing definition wins
	base.Set(FieldSpec{Name: FieldBranch, Patterns: []Pattern{MustPattern(`br\s*(\w+)`, 1, Normalized)}})
	spec, ok := DiagnosticTable(base).Field(FieldBranch)
	require.True(t, ok)
	assert.Len(t, spec.Patterns, 1)
}

func TestCandidates_Details(t *testing.T) {
	e := NewEngine(DiagnosticTable(nil))
	c := e.Candidates("STATE BANK DEPOSIT SLIP\nBranch: MG Road  Date 05-09-24\nPaid at HDFC Bank")

	assert.Equal(t, []string{"hdfc bank", "state bank"}, c[FieldBankName])
	assert.Equal(t, []string{"mg road"}, c[FieldBranch])
}
