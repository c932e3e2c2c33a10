package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/slipscan/internal/batch"
	"github.com/spf13/cobra"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the fields the extractor reports",
	Long: `List the extraction fields in output order. With --show-patterns the
regular expressions tried for each field are printed as well, in the order
they are tried. A --patterns file is applied before listing.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cmd.Flags().Changed("patterns") {
			cfg.Extraction.PatternsFile, _ = cmd.Flags().GetString("patterns")
		}
		showPatterns, _ := cmd.Flags().GetBool("show-patterns")

		pl, err := cfg.ToPipelineBuilder().Build()
		if err != nil {
			return fmt.Errorf("failed to build pipeline: %w", err)
		}

		out := cmd.OutOrStdout()
		table := pl.Extractor().Table()
		for _, name := range table.Names() {
			spec, _ := table.Field(name)
			_, _ = fmt.Fprintf(out, "%s\t%s\t%d patterns\n", name, batch.FieldLabel(name), len(spec.Patterns))
			if !showPatterns {
				continue
			}
			for i, p := range spec.Patterns {
				_, _ = fmt.Fprintf(out, "  %d. [%s] group %d: %s\n", i+1, p.Source, p.Group, p.Regexp.String())
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
	fieldsCmd.Flags().Bool("show-patterns", false, "print each field's regular expressions")
	fieldsCmd.Flags().String("patterns", "", "YAML file with extra or replacement field patterns")
}
