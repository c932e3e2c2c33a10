package cmd

import (
	"fmt"
	"runtime"
	"time"

	"github.com/MeKo-Tech/slipscan/internal/batch"
	"github.com/MeKo-Tech/slipscan/internal/config"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch [paths...]",
	Short: "Extract slip fields from many files in parallel",
	Long: `Process a set of deposit slip scans, or whole directories of them, and
collect one row per input. Unreadable or corrupt files produce an error row
instead of stopping the run; rows keep the order in which inputs were found.

With --output-dir, timestamped CSV and JSON result files are written to the
directory. With --text-input, .txt transcriptions are processed instead of
images and no OCR backend is required.

Supported formats: JPEG, PNG, BMP, TIFF

Examples:
  slipscan batch scans/*.jpg
  slipscan batch scans/ --recursive --workers 4 --output-dir results
  slipscan batch transcripts/ --text-input --format json`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBatchCommand,
}

func configToBatchConfig(cfg *config.Config, cmd *cobra.Command) *batch.Config {
	bc := cfg.ToBatchConfig()
	f := cmd.Flags()

	if f.Changed("workers") {
		bc.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("recursive") {
		bc.Recursive, _ = f.GetBool("recursive")
	}
	if f.Changed("include") {
		bc.IncludePatterns, _ = f.GetStringSlice("include")
	}
	if f.Changed("exclude") {
		bc.ExcludePatterns, _ = f.GetStringSlice("exclude")
	}
	if f.Changed("output-dir") {
		bc.OutputDir, _ = f.GetString("output-dir")
	}
	bc.Format, bc.OutputFile = outputSettings(cmd, cfg)

	bc.TextInput, _ = f.GetBool("text-input")
	bc.ShowProgress, _ = f.GetBool("progress")
	bc.Quiet, _ = f.GetBool("quiet")
	bc.ShowStats, _ = f.GetBool("stats")
	if f.Changed("progress-interval") {
		bc.ProgressInterval, _ = f.GetDuration("progress-interval")
	}
	return bc
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := applyOCRFlags(cmd, cfg); err != nil {
		return err
	}
	bc := configToBatchConfig(cfg, cmd)
	if bc.Workers < 1 {
		return fmt.Errorf("invalid workers: %d (must be positive)", bc.Workers)
	}

	pl, err := buildPipeline(cfg, !bc.TextInput)
	if err != nil {
		return err
	}

	result, err := batch.ProcessBatch(cmd.Context(), pl, args, bc)
	if err != nil {
		return fmt.Errorf("batch processing failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if bc.OutputDir != "" {
		paths, err := result.WriteOutputDir(bc.OutputDir, time.Now())
		if err != nil {
			return fmt.Errorf("failed to save results: %w", err)
		}
		if !bc.Quiet {
			for _, p := range paths {
				_, _ = fmt.Fprintf(out, "Results written to %s\n", p)
			}
		}
	} else if err := result.SaveResults(bc.Format, bc.OutputFile, out, bc.Quiet); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	if bc.ShowStats && !bc.Quiet {
		result.PrintStats(cmd.ErrOrStderr())
	}
	return nil
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addOCRFlags(batchCmd)
	addOutputFlags(batchCmd)

	batchCmd.Flags().String("output-dir", "", "write timestamped CSV and JSON results into this directory")
	batchCmd.Flags().IntP("workers", "w", 0, fmt.Sprintf("number of parallel workers (e.g. %d)", runtime.NumCPU()))
	batchCmd.Flags().BoolP("recursive", "r", false, "recursively scan directories")
	batchCmd.Flags().StringSlice("include", nil, "file patterns to include (e.g. *.jpg)")
	batchCmd.Flags().StringSlice("exclude", nil, "file patterns to exclude")
	batchCmd.Flags().Bool("text-input", false, "process .txt transcriptions instead of images")

	batchCmd.Flags().Bool("progress", false, "show progress bar")
	batchCmd.Flags().Bool("quiet", false, "suppress progress output")
	batchCmd.Flags().Bool("stats", false, "show processing statistics")
	batchCmd.Flags().Duration("progress-interval", 100*time.Millisecond, "progress update interval")
}
