package batch

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/slipscan/internal/extract"
	"github.com/MeKo-Tech/slipscan/internal/ocr"
	"github.com/MeKo-Tech/slipscan/internal/pipeline"
	"github.com/MeKo-Tech/slipscan/internal/testutil"
)

func sampleResult(t *testing.T) *Result {
	t.Helper()
	pl := newPipeline(t, nil)
	ok := pl.ExtractText("slip1.png", testutil.SlipStandard)
	ok.OCR = &ocr.Selection{Text: testutil.SlipStandard, Confidence: 87.5, Strategy: "standard", Config: "block"}
	failed := pipeline.Document{
		SourceFile:  "broken.png",
		Status:      pipeline.StatusError,
		Record:      pl.Extractor().Extract(""),
		Error:       "decode image: unexpected EOF",
		ProcessedAt: fixedTime,
	}
	empty := pl.ExtractText("blank.png", "")

	res := &Result{
		Documents: []pipeline.Document{ok, failed, empty},
		Fields:    pl.Fields(),
		Workers:   2,
	}
	for _, d := range res.Documents {
		res.Stats.Add(d)
	}
	res.Stats.Duration = 1500 * time.Millisecond
	return res
}

func TestFormatCSV(t *testing.T) {
	res := sampleResult(t)

	out, err := res.FormatResults(FormatCSV)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, pipeline.Columns(res.Fields), rows[0])

	header := map[string]int{}
	for i, c := range rows[0] {
		header[c] = i
	}
	first := rows[1]
	assert.Equal(t, "slip1.png", first[header[pipeline.ColSourceFile]])
	assert.Equal(t, "1234567890123", first[header[extract.FieldAccountNumber]])
	assert.Equal(t, "15750.50", first[header[extract.FieldAmountNumbers]])
	assert.Equal(t, "87.50", first[header[pipeline.ColConfidence]])
	assert.Equal(t, "2025-08-24T10:30:00Z", first[header[pipeline.ColProcessedAt]])
	assert.Equal(t, testutil.SlipStandard, first[header[pipeline.ColRawText]])

	broken := rows[2]
	assert.Equal(t, "error", broken[header[pipeline.ColStatus]])
	assert.Equal(t, "decode image: unexpected EOF", broken[header[pipeline.ColError]])
	assert.Empty(t, broken[header[extract.FieldName]])
}

func TestFormatJSON(t *testing.T) {
	res := sampleResult(t)

	out, err := res.FormatResults(FormatJSON)
	require.NoError(t, err)

	var rows []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "John Michael Smith", rows[0][extract.FieldName])
	assert.Equal(t, "no_text", rows[2][pipeline.ColStatus])

	// every row carries every column, in column order
	for _, r := range rows {
		assert.Len(t, r, len(pipeline.Columns(res.Fields)))
	}
	assert.Less(t, strings.Index(out, `"source_file"`), strings.Index(out, `"account_number"`))
	assert.Less(t, strings.Index(out, `"account_number"`), strings.Index(out, `"raw_text"`))
}

func TestFormatText(t *testing.T) {
	res := sampleResult(t)

	out, err := res.FormatResults(FormatText)
	require.NoError(t, err)

	assert.Contains(t, out, "# slip1.png\n")
	assert.Contains(t, out, "Account Number:")
	assert.Contains(t, out, "1234567890123")
	assert.Contains(t, out, "  Error: decode image: unexpected EOF\n")
	assert.Contains(t, out, "  Warning: no text extracted\n")
	assert.Contains(t, out, "Not found")
}

func TestFormatResults_Unsupported(t *testing.T) {
	_, err := sampleResult(t).FormatResults("xml")
	assert.Error(t, err)
}

func TestFieldLabel(t *testing.T) {
	assert.Equal(t, "Account Number", FieldLabel("account_number"))
	assert.Equal(t, "Amount Words", FieldLabel("amount_words"))
	assert.Equal(t, "Date", FieldLabel("date"))
}

func TestSaveResults(t *testing.T) {
	res := sampleResult(t)

	t.Run("writer", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, res.SaveResults(FormatCSV, "", &buf, false))
		assert.True(t, strings.HasPrefix(buf.String(), "source_file,"))
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		var buf bytes.Buffer
		require.NoError(t, res.SaveResults(FormatJSON, path, &buf, false))
		assert.Contains(t, buf.String(), "Results written to "+path)
		assert.True(t, testutil.FileExists(path))
	})

	t.Run("quiet", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, res.SaveResults(FormatJSON, filepath.Join(t.TempDir(), "o.json"), &buf, true))
		assert.Empty(t, buf.String())
	})
}

func TestWriteOutputDir(t *testing.T) {
	res := sampleResult(t)
	dir := filepath.Join(t.TempDir(), "results")

	paths, err := res.WriteOutputDir(dir, fixedTime)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "slip_results_20250824_103000.csv"),
		filepath.Join(dir, "slip_results_20250824_103000.json"),
	}, paths)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestPrintStats(t *testing.T) {
	res := sampleResult(t)
	var buf bytes.Buffer

	res.PrintStats(&buf)

	out := buf.String()
	assert.Contains(t, out, "Total documents: 3")
	assert.Contains(t, out, "Extracted: 1")
	assert.Contains(t, out, "No text: 1")
	assert.Contains(t, out, "Failed: 1")
	assert.Contains(t, out, "Workers: 2")
	assert.Contains(t, out, "Duration: 1.5s")
	assert.Contains(t, out, "Avg per document: 500ms")
	assert.Contains(t, out, "account_number found: 1/3")
}
