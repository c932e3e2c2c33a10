package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/slipscan/internal/batch"
	"github.com/MeKo-Tech/slipscan/internal/config"
	"github.com/MeKo-Tech/slipscan/internal/ocr"
	"github.com/MeKo-Tech/slipscan/internal/ocr/tesseract"
	"github.com/MeKo-Tech/slipscan/internal/pipeline"
	"github.com/spf13/cobra"
)

// engineFactory creates the OCR engine for a command. Tests replace it.
var engineFactory = func(cfg *config.Config) (ocr.Engine, error) {
	eng, err := tesseract.New(cfg.ToTesseractOptions())
	if err != nil {
		return nil, err
	}
	return eng, nil
}

// addOCRFlags registers the flags that tune recognition and extraction.
func addOCRFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("language", "l", "", "Tesseract language(s), joined with '+' (e.g. eng+hin)")
	cmd.Flags().String("tessdata", "", "override the tessdata directory")
	cmd.Flags().StringSlice("strategies", nil, "preprocessing strategies to try, in order")
	cmd.Flags().String("scorer", "", "attempt scorer (mean-confidence, length-weighted)")
	cmd.Flags().Int("min-text-length", 0, "minimum characters for an OCR attempt to count")
	cmd.Flags().Int("max-dimension", 0, "downscale images whose longer side exceeds this (0 disables)")
	cmd.Flags().Int("attempt-parallelism", 0, "OCR attempts run concurrently per image")
	cmd.Flags().String("patterns", "", "YAML file with extra or replacement field patterns")
	cmd.Flags().String("pdf-pages", "", "pages of PDF inputs to read (e.g. 1 or 1-2)")
}

// applyOCRFlags copies explicitly set OCR flags over cfg and revalidates it.
func applyOCRFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("language") {
		cfg.OCR.Language, _ = f.GetString("language")
	}
	if f.Changed("tessdata") {
		cfg.OCR.TessdataPrefix, _ = f.GetString("tessdata")
	}
	if f.Changed("strategies") {
		cfg.OCR.Strategies, _ = f.GetStringSlice("strategies")
	}
	if f.Changed("scorer") {
		cfg.OCR.Scorer, _ = f.GetString("scorer")
	}
	if f.Changed("min-text-length") {
		cfg.OCR.MinTextLength, _ = f.GetInt("min-text-length")
	}
	if f.Changed("max-dimension") {
		cfg.OCR.MaxImageDimension, _ = f.GetInt("max-dimension")
	}
	if f.Changed("attempt-parallelism") {
		cfg.OCR.AttemptParallelism, _ = f.GetInt("attempt-parallelism")
	}
	if f.Changed("patterns") {
		cfg.Extraction.PatternsFile, _ = f.GetString("patterns")
	}
	if f.Changed("pdf-pages") {
		cfg.OCR.PDFPages, _ = f.GetString("pdf-pages")
	}
	return cfg.Validate()
}

// addOutputFlags registers --format and --output.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "", "output format (csv, json, text)")
	cmd.Flags().StringP("output", "o", "", "write results to this file instead of stdout")
}

// outputSettings returns the output format and file, preferring flags.
func outputSettings(cmd *cobra.Command, cfg *config.Config) (string, string) {
	format, file := cfg.Output.Format, cfg.Output.File
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("output") {
		file, _ = cmd.Flags().GetString("output")
	}
	if format == "" {
		format = batch.FormatCSV
	}
	return format, file
}

// buildPipeline assembles a pipeline from cfg. With withOCR set the OCR
// engine is mandatory; otherwise a missing backend leaves a text-only
// pipeline.
func buildPipeline(cfg *config.Config, withOCR bool) (*pipeline.Pipeline, error) {
	b := cfg.ToPipelineBuilder().WithLogger(slog.Default())

	eng, err := engineFactory(cfg)
	switch {
	case err == nil:
		b = b.WithEngine(eng)
	case withOCR:
		return nil, fmt.Errorf("OCR backend unavailable: %w", err)
	case errors.Is(err, ocr.ErrNoBackend):
		slog.Warn("OCR backend not linked, image extraction disabled")
	default:
		slog.Warn("OCR engine failed to initialize, image extraction disabled", "error", err)
	}

	pl, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	return pl, nil
}

// writeDocuments renders docs in format to file, or to the command's stdout.
func writeDocuments(cmd *cobra.Command, docs []pipeline.Document, fields []string, format, file string) error {
	res := &batch.Result{Documents: docs, Fields: fields}
	return res.SaveResults(format, file, cmd.OutOrStdout(), false)
}

// failedCount returns how many docs ended in StatusError.
func failedCount(docs []pipeline.Document) int {
	n := 0
	for _, d := range docs {
		if d.Status == pipeline.StatusError {
			n++
		}
	}
	return n
}
