package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MeKo-Tech/slipscan/internal/batch"
	"github.com/MeKo-Tech/slipscan/internal/extract"
	"github.com/MeKo-Tech/slipscan/internal/pipeline"
	"github.com/spf13/cobra"
)

const stdinSource = "stdin"

// textCmd represents the text command.
var textCmd = &cobra.Command{
	Use:   "text [files...]",
	Short: "Extract slip fields from plain-text transcriptions",
	Long: `Run only the field extractor on text that has already been transcribed.
With no arguments, or with "-", the text is read from standard input.

No OCR backend is needed for this command.

Examples:
  slipscan text slip.txt
  cat slip.txt | slipscan text --format json
  slipscan text slip.txt --field account_number
  slipscan text slip.txt --candidates`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if err := applyOCRFlags(cmd, cfg); err != nil {
			return err
		}
		format, outputFile := outputSettings(cmd, cfg)
		field, _ := cmd.Flags().GetString("field")
		candidates, _ := cmd.Flags().GetBool("candidates")

		pl, err := cfg.ToPipelineBuilder().Build()
		if err != nil {
			return fmt.Errorf("failed to build pipeline: %w", err)
		}

		if len(args) == 0 {
			args = []string{"-"}
		}
		out := cmd.OutOrStdout()

		switch {
		case field != "":
			for _, arg := range args {
				text, err := readTextArg(cmd, arg)
				if err != nil {
					return err
				}
				v, err := pl.Extractor().ExtractField(field, text)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, v)
			}
			return nil

		case candidates:
			diag := extract.NewEngine(extract.DiagnosticTable(pl.Extractor().Table()))
			for _, arg := range args {
				text, err := readTextArg(cmd, arg)
				if err != nil {
					return err
				}
				printCandidates(out, sourceLabel(arg), diag.Fields(), diag.Candidates(text))
			}
			return nil
		}

		docs := make([]pipeline.Document, 0, len(args))
		for _, arg := range args {
			if arg == "-" {
				text, err := readTextArg(cmd, arg)
				if err != nil {
					return err
				}
				docs = append(docs, pl.ExtractText(stdinSource, text))
				continue
			}
			docs = append(docs, pl.ProcessTextFile(arg))
		}
		if err := writeDocuments(cmd, docs, pl.Fields(), format, outputFile); err != nil {
			return err
		}
		if n := failedCount(docs); n > 0 {
			return fmt.Errorf("%d of %d inputs failed", n, len(docs))
		}
		return nil
	},
}

func readTextArg(cmd *cobra.Command, arg string) (string, error) {
	if arg == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(arg) //nolint:gosec // G304: operator-supplied input
	if err != nil {
		return "", fmt.Errorf("read %s: %w", arg, err)
	}
	return string(b), nil
}

func sourceLabel(arg string) string {
	if arg == "-" {
		return stdinSource
	}
	return arg
}

// printCandidates lists every accepted value per field, followed by the
// bank and branch details; the first value of a record field is what a
// normal extraction reports.
func printCandidates(w io.Writer, source string, fields []string, cands map[string][]string) {
	_, _ = fmt.Fprintf(w, "=== %s ===\n", source)
	for _, name := range fields {
		vals := cands[name]
		if len(vals) == 0 {
			_, _ = fmt.Fprintf(w, "%s: (none)\n", batch.FieldLabel(name))
			continue
		}
		_, _ = fmt.Fprintf(w, "%s: %s\n", batch.FieldLabel(name), strings.Join(vals, " | "))
	}
}

func init() {
	rootCmd.AddCommand(textCmd)
	textCmd.Flags().String("patterns", "", "YAML file with extra or replacement field patterns")
	textCmd.Flags().String("field", "", "print only this field's value")
	textCmd.Flags().Bool("candidates", false, "list every candidate value per field")
	addOutputFlags(textCmd)
}
