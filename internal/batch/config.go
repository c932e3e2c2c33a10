package batch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/slipscan/internal/pipeline"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatText = "text"
)

// Config holds all configuration for batch processing.
type Config struct {
	// Parallel processing settings
	Workers int

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
	// TextInput processes .txt transcriptions instead of images.
	TextInput bool

	// Output settings
	Format     string
	OutputFile string
	OutputDir  string

	// Progress settings
	ShowProgress     bool
	Quiet            bool
	ShowStats        bool
	ProgressInterval time.Duration
	Progress         pipeline.ProgressCallback
}

// Result holds the result of batch processing: one document per input, in
// discovery order.
type Result struct {
	Documents []pipeline.Document
	Fields    []string
	Stats     pipeline.Stats
	Workers   int
}

// FormatResults formats the batch processing results in the specified format.
func (r *Result) FormatResults(format string) (string, error) {
	return formatDocuments(r.Documents, r.Fields, format)
}

// SaveResults writes the formatted results to outputFile, or to w when
// outputFile is empty.
func (r *Result) SaveResults(format, outputFile string, w io.Writer, quiet bool) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile == "" {
		_, err = fmt.Fprint(w, output)
		return err
	}
	if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if !quiet {
		_, _ = fmt.Fprintf(w, "Results written to %s\n", outputFile)
	}
	return nil
}

// OutputFileStem is the timestamped base name used by WriteOutputDir.
func OutputFileStem(t time.Time) string {
	return "slip_results_" + t.Format("20060102_150405")
}

// WriteOutputDir writes CSV and JSON artifacts named after t into dir and
// returns their paths.
func (r *Result) WriteOutputDir(dir string, t time.Time) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	stem := OutputFileStem(t)
	var paths []string
	for _, format := range []string{FormatCSV, FormatJSON} {
		out, err := r.FormatResults(format)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, stem+"."+format)
		if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(w io.Writer) {
	s := r.Stats
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total documents: %d\n", s.Total)
	_, _ = fmt.Fprintf(w, "  Extracted: %d\n", s.OK)
	_, _ = fmt.Fprintf(w, "  No text: %d\n", s.NoText)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", r.Workers)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", s.Duration.Round(time.Millisecond))
	if s.Total > 0 {
		_, _ = fmt.Fprintf(w, "  Avg per document: %v\n", (s.Duration / time.Duration(s.Total)).Round(time.Millisecond))
	}
	for _, name := range r.Fields {
		found := 0
		for _, d := range r.Documents {
			if d.Record.Fields[name] != "" {
				found++
			}
		}
		_, _ = fmt.Fprintf(w, "  %s found: %d/%d\n", name, found, s.Total)
	}
}
