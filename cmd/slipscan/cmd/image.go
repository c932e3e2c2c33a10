package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/slipscan/internal/pipeline"
	"github.com/spf13/cobra"
)

// imageCmd represents the image command.
var imageCmd = &cobra.Command{
	Use:   "image [files...]",
	Short: "Extract slip fields from image files",
	Long: `Run the OCR pipeline on one or more scanned deposit slips and print the
extracted fields.

Every image goes through each preprocessing strategy and OCR configuration;
the best scoring transcription is passed to the field extractor.

Supported formats: JPEG, PNG, BMP, TIFF, GIF and PDF. A PDF with a text
layer skips OCR; a scanned PDF is recognised page by page.

Examples:
  slipscan image slip.jpg
  slipscan image *.png --format json
  slipscan image scan.pdf --pdf-pages 1
  slipscan image slip.jpg --strategies standard,denoised --output result.csv`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input files provided")
		}

		cfg := GetConfig()
		if err := applyOCRFlags(cmd, cfg); err != nil {
			return err
		}
		format, outputFile := outputSettings(cmd, cfg)

		pl, err := buildPipeline(cfg, true)
		if err != nil {
			return err
		}

		docs := make([]pipeline.Document, 0, len(args))
		for _, path := range args {
			doc := pl.ProcessFile(cmd.Context(), path)
			if doc.Status == pipeline.StatusError {
				slog.Warn("Image failed", "file", path, "error", doc.Error)
			}
			docs = append(docs, doc)
		}

		if err := writeDocuments(cmd, docs, pl.Fields(), format, outputFile); err != nil {
			return err
		}
		if n := failedCount(docs); n > 0 {
			return fmt.Errorf("%d of %d images failed", n, len(docs))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(imageCmd)
	addOCRFlags(imageCmd)
	addOutputFlags(imageCmd)
}
