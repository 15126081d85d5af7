package cmd

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/ria/internal/analysis"
	"github.com/papapumpkin/ria/internal/report"
)

var graphCmd = &cobra.Command{
	Use:   "graph <dataset>",
	Short: "Emit the review graph in Graphviz DOT format",
	Long: `Emits the reviewer/product graph as DOT, ready for "dot -Tsvg".

With --analyze the scores shown on the nodes are the converged ones;
otherwise they are the initial defaults.`,
	Args: cobra.ExactArgs(1),
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().Bool("analyze", false, "refine to convergence before rendering")
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	path := args[0]

	s := &session{cfg: cfg, logger: logger, out: cmd.OutOrStdout()}
	g, err := s.load(path)
	if err != nil {
		return err
	}
	if ok, _ := cmd.Flags().GetBool("analyze"); ok {
		runner := &analysis.Runner{Options: cfg.AnalysisOptions(), Logger: logger}
		if _, err := runner.Run(cmd.Context(), g); err != nil {
			return err
		}
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	_, err = io.WriteString(cmd.OutOrStdout(), report.DOT{Name: name}.Render(g))
	return err
}
