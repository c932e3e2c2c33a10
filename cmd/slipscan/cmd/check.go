package cmd

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/spf13/cobra"
)

// checkCmd verifies that the OCR backend is linked and answers.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the OCR backend setup",
	Long: `Verify that the Tesseract backend is compiled in and can recognize a
blank test page with the configured languages.

Text extraction (slipscan text, batch --text-input) works without it.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cfg := GetConfig()
		if err := applyOCRFlags(cmd, cfg); err != nil {
			return err
		}

		_, _ = fmt.Fprintln(out, cmd.Short)
		_, _ = fmt.Fprintf(out, "Languages: %v\n", cfg.Languages())

		eng, err := engineFactory(cfg)
		if err != nil {
			_, _ = fmt.Fprintf(out, "OCR backend: unavailable (%v)\n", err)
			_, _ = fmt.Fprintln(out)
			_, _ = fmt.Fprintln(out, "To enable image extraction:")
			_, _ = fmt.Fprintln(out, "1. Install tesseract-ocr and libtesseract-dev (plus the language packs)")
			_, _ = fmt.Fprintln(out, "2. Rebuild: go build -tags=tesseract ./cmd/slipscan")
			return fmt.Errorf("OCR backend check failed: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		page := image.NewGray(image.Rect(0, 0, 64, 32))
		for i := range page.Pix {
			page.Pix[i] = color.White.Y
		}
		start := time.Now()
		if _, err := eng.Recognize(ctx, page, cfg.OCR.Configs[0]); err != nil {
			_, _ = fmt.Fprintf(out, "OCR backend: recognition failed (%v)\n", err)
			return fmt.Errorf("OCR backend check failed: %w", err)
		}
		_, _ = fmt.Fprintf(out, "OCR backend: ok (%v)\n", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringP("language", "l", "", "Tesseract language(s), joined with '+'")
	checkCmd.Flags().String("tessdata", "", "override the tessdata directory")
}
