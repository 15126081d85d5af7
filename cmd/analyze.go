package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/ria/internal/analysis"
	"github.com/papapumpkin/ria/internal/bipartite"
	"github.com/papapumpkin/ria/internal/config"
	"github.com/papapumpkin/ria/internal/dataset"
	"github.com/papapumpkin/ria/internal/history"
	"github.com/papapumpkin/ria/internal/report"
	"github.com/papapumpkin/ria/internal/telemetry"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <dataset>",
	Short: "Refine a review graph until its scores converge",
	Long: `Loads a TOML or JSON Lines dataset, refines reviewer anomalous scores and
product summaries until a pass changes them by less than --epsilon, and prints
the result.

With --watch the dataset is re-analyzed every time it changes until
interrupted. Runs are recorded in the history database when --db is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Int("max-iterations", 10000, "upper bound on refinement passes")
	analyzeCmd.Flags().Float64("epsilon", 1e-5, "convergence threshold")
	analyzeCmd.Flags().Int("top", 0, "rows per table (0 shows all)")
	analyzeCmd.Flags().BoolP("watch", "w", false, "re-analyze when the dataset changes")

	for key, flag := range map[string]string{
		"max_iterations": "max-iterations",
		"epsilon":        "epsilon",
		"top":            "top",
	} {
		if err := viper.BindPFlag(key, analyzeCmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	watch, _ := cmd.Flags().GetBool("watch")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer s.Close()

	path := args[0]
	if err := s.analyze(ctx, path); err != nil {
		if !watch || errors.Is(err, context.Canceled) {
			return err
		}
		logger.Error("analysis failed", "err", err)
	}
	if !watch {
		return nil
	}
	return s.watch(ctx, path)
}

// session holds what a sequence of analyses share.
type session struct {
	cfg     config.Config
	logger  *log.Logger
	out     io.Writer
	emitter *telemetry.Emitter
	store   *history.Store
}

func openSession(ctx context.Context, cfg config.Config, logger *log.Logger, out io.Writer) (*session, error) {
	s := &session{cfg: cfg, logger: logger, out: out}
	if cfg.TelemetryPath != "" {
		em, err := telemetry.NewEmitter(cfg.TelemetryPath)
		if err != nil {
			return nil, err
		}
		s.emitter = em
	}
	if cfg.DBPath != "" {
		store, err := history.Open(ctx, cfg.DBPath)
		if err != nil {
			s.emitter.Close()
			return nil, err
		}
		s.store = store
	}
	return s, nil
}

// Close releases the telemetry file and history database.
func (s *session) Close() error {
	var errs []error
	if err := s.emitter.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("history: close: %w", err))
		}
	}
	return errors.Join(errs...)
}

// load builds a fresh graph for the configured variant from path.
func (s *session) load(path string) (*bipartite.Graph, error) {
	g := s.cfg.NewGraph()
	st, err := dataset.Load(path, g)
	if err != nil {
		return nil, err
	}
	s.logger.Info("dataset loaded",
		"path", path,
		"reviewers", humanize.Comma(int64(st.Reviewers)),
		"products", humanize.Comma(int64(st.Products)),
		"reviews", humanize.Comma(int64(st.Reviews)))
	return g, nil
}

// analyze loads, refines, records and prints one dataset.
func (s *session) analyze(ctx context.Context, path string) error {
	g, err := s.load(path)
	if err != nil {
		return err
	}

	runner := &analysis.Runner{
		Options: s.cfg.AnalysisOptions(),
		Logger:  s.logger,
		Emitter: s.emitter,
	}
	res, err := runner.Run(ctx, g)
	if err != nil {
		return err
	}

	if s.store != nil {
		id, err := s.store.Record(ctx, history.Run{
			ID:         res.RunID,
			Variant:    g.Variant().String(),
			Alpha:      g.Alpha(),
			Iterations: res.Iterations,
			Delta:      res.Delta,
			Converged:  res.Converged,
			Dataset:    path,
			Scores:     history.Capture(g),
		})
		if err != nil {
			return err
		}
		s.logger.Debug("run recorded", "id", id)
	}
	return render(s.out, s.cfg, g)
}

// watch re-analyzes path on every change until ctx is done.
func (s *session) watch(ctx context.Context, path string) error {
	w, err := dataset.NewWatcher(path)
	if err != nil {
		return err
	}
	defer w.Stop()
	if err := w.Start(); err != nil {
		return err
	}
	s.logger.Info("watching for changes", "path", w.File)

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-w.Changes:
			if !ok {
				return nil
			}
			if change.Removed {
				s.logger.Warn("dataset removed; waiting for it to return", "path", change.File)
				continue
			}
			if err := s.analyze(ctx, path); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				s.logger.Error("analysis failed", "err", err)
			}
		}
	}
}

// render prints g in the configured format.
func render(w io.Writer, cfg config.Config, g *bipartite.Graph) error {
	var out string
	switch f := cfg.OutputFormat(); f {
	case report.FormatJSON, report.FormatYAML:
		return report.Encode(w, report.Collect(g), f)
	case report.FormatDOT:
		out = report.DOT{}.Render(g)
	default:
		out = report.ScoreTable{Top: cfg.Top}.Render(g)
	}
	_, err := io.WriteString(w, out)
	return err
}
