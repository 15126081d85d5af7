package cmd

import (
	"github.com/spf13/cobra"
)

var credibilityCmd = &cobra.Command{
	Use:   "credibility <dataset>",
	Short: "Print product credibilities as JSON Lines",
	Long: `Prints one {"product_id", "credibility"} object per product.

Credibility only depends on the ratings, so --refine is mainly useful to
inspect a graph after a fixed number of passes.`,
	Args: cobra.ExactArgs(1),
	RunE: runCredibility,
}

func init() {
	credibilityCmd.Flags().Int("refine", 0, "refinement passes to run first")
	rootCmd.AddCommand(credibilityCmd)
}

func runCredibility(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	passes, _ := cmd.Flags().GetInt("refine")

	s := &session{cfg: cfg, logger: logger, out: cmd.OutOrStdout()}
	g, err := s.load(args[0])
	if err != nil {
		return err
	}
	for i := 0; i < passes; i++ {
		delta := g.Refine()
		logger.Debug("refine pass", "iteration", i+1, "delta", delta)
	}
	return g.ExportCredibilities(cmd.OutOrStdout())
}
