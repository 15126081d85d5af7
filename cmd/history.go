package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/ria/internal/config"
	"github.com/papapumpkin/ria/internal/history"
	"github.com/papapumpkin/ria/internal/report"
)

// errNoHistory is returned when the history command runs without a database.
var errNoHistory = errors.New("history: no database configured (set --db or db_path)")

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded runs or show one run's scores",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of runs to list (0 lists all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DBPath == "" {
		return errNoHistory
	}

	ctx := cmd.Context()
	store, err := history.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 1 {
		return showRun(ctx, cmd.OutOrStdout(), cfg, store, args[0])
	}
	limit, _ := cmd.Flags().GetInt("limit")
	return listRuns(ctx, cmd.OutOrStdout(), cfg, store, limit)
}

func listRuns(ctx context.Context, w io.Writer, cfg config.Config, store *history.Store, limit int) error {
	runs, err := store.Runs(ctx, limit)
	if err != nil {
		return err
	}
	if f := cfg.OutputFormat(); f == report.FormatJSON || f == report.FormatYAML {
		return report.Encode(w, runs, f)
	}
	if len(runs) == 0 {
		_, err := io.WriteString(w, "No runs recorded.\n")
		return err
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.Variant,
			strconv.Itoa(r.Iterations),
			strconv.FormatBool(r.Converged),
			r.Dataset,
			humanize.Time(r.CreatedAt),
		})
	}
	_, err = fmt.Fprintln(w, report.Table([]string{"RUN", "VARIANT", "PASSES", "CONVERGED", "DATASET", "WHEN"}, rows))
	return err
}

func showRun(ctx context.Context, w io.Writer, cfg config.Config, store *history.Store, id string) error {
	run, err := store.Run(ctx, id)
	if err != nil {
		return err
	}
	run.Scores, err = store.Scores(ctx, id)
	if err != nil {
		return err
	}
	if f := cfg.OutputFormat(); f == report.FormatJSON || f == report.FormatYAML {
		return report.Encode(w, run, f)
	}

	fmt.Fprintf(w, "run %s: %s (alpha %g) on %s, %d passes, converged=%t, %s\n",
		run.ID, run.Variant, run.Alpha, run.Dataset, run.Iterations, run.Converged, humanize.Time(run.CreatedAt))
	rows := make([][]string, 0, len(run.Scores))
	for _, sc := range run.Scores {
		rows = append(rows, []string{sc.Kind, sc.Name, strconv.FormatFloat(sc.Value, 'f', 4, 64)})
	}
	_, err = fmt.Fprintln(w, report.Table([]string{"KIND", "NAME", "VALUE"}, rows))
	return err
}
