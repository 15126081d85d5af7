// Package analysis drives a review graph to a fixed point by calling Refine
// until the largest per-pass change falls below a threshold.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/papapumpkin/ria/internal/bipartite"
	"github.com/papapumpkin/ria/internal/logging"
	"github.com/papapumpkin/ria/internal/telemetry"
)

// ErrInvalidOptions is returned by Run for a non-positive iteration cap or a
// negative threshold.
var ErrInvalidOptions = errors.New("analysis: invalid options")

// Options bounds the convergence loop.
type Options struct {
	MaxIterations int     // upper bound on Refine calls
	Epsilon       float64 // stop once a pass changes less than this
}

// DefaultOptions returns 10000 iterations and a 1e-5 threshold.
func DefaultOptions() Options {
	return Options{
		MaxIterations: 10000,
		Epsilon:       1e-5,
	}
}

// Graph is the part of *bipartite.Graph the runner needs.
type Graph interface {
	Refine() float64
	Variant() bipartite.Variant
}

// stateful graphs expose their node values so the runner can measure the
// change of a pass itself. OneSum reports raw score changes that can stay
// large after the normalized scores have settled.
type stateful interface {
	State() []float64
}

// Result describes a finished run.
type Result struct {
	RunID      string
	Iterations int
	Delta      float64 // change reported by the last pass
	Change     float64 // observed change of the last pass; equals Delta for graphs without State
	Converged  bool
	Elapsed    time.Duration
}

// Runner repeatedly refines a graph. Logger and Emitter may be nil.
type Runner struct {
	Options Options
	Logger  *log.Logger
	Emitter *telemetry.Emitter
}

// NewRunner returns a Runner with the given options and no logging.
func NewRunner(opts Options) *Runner {
	return &Runner{Options: opts}
}

// Run refines g until a pass changes less than Epsilon, the iteration cap is
// hit, or ctx is cancelled. When g exposes State the change is measured by
// comparing states, otherwise it is the value Refine reports. Cancellation is checked between passes;
// the partial Result is returned alongside ctx.Err().
func (r *Runner) Run(ctx context.Context, g Graph) (Result, error) {
	opts := r.Options
	if opts.MaxIterations <= 0 || opts.Epsilon < 0 {
		return Result{}, fmt.Errorf("%w: max_iterations=%d epsilon=%g", ErrInvalidOptions, opts.MaxIterations, opts.Epsilon)
	}
	logger := r.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	res := Result{RunID: uuid.NewString()}
	variant := g.Variant().String()
	start := time.Now()
	r.emit(logger, telemetry.Event{
		Kind:    telemetry.KindAnalysisStart,
		RunID:   res.RunID,
		Variant: variant,
		Data:    opts,
	})
	logger.Info("analysis started", "run", res.RunID, "variant", variant)

	st, hasState := g.(stateful)
	var prev []float64
	if hasState {
		prev = st.State()
	}

	var err error
	for res.Iterations < opts.MaxIterations {
		if err = ctx.Err(); err != nil {
			break
		}
		res.Delta = g.Refine()
		res.Iterations++
		res.Change = res.Delta
		if hasState {
			cur := st.State()
			res.Change = floats.Distance(cur, prev, math.Inf(1))
			prev = cur
		}
		logger.Debug("refine pass", "iteration", res.Iterations, "delta", res.Delta, "change", res.Change)
		r.emit(logger, telemetry.Event{
			Kind:      telemetry.KindRefinePass,
			RunID:     res.RunID,
			Iteration: res.Iterations,
			Delta:     res.Delta,
			Data:      map[string]float64{"change": res.Change},
		})
		if res.Change == 0 || res.Change < opts.Epsilon {
			res.Converged = true
			break
		}
	}
	res.Elapsed = time.Since(start)

	r.emit(logger, telemetry.Event{
		Kind:      telemetry.KindAnalysisDone,
		RunID:     res.RunID,
		Variant:   variant,
		Iteration: res.Iterations,
		Delta:     res.Delta,
		Data:      map[string]any{"converged": res.Converged, "change": res.Change, "elapsed_ms": res.Elapsed.Milliseconds()},
	})
	if err != nil {
		logger.Warn("analysis cancelled", "run", res.RunID, "iterations", res.Iterations)
		return res, fmt.Errorf("analysis: run %s: %w", res.RunID, err)
	}
	if !res.Converged {
		logger.Warn("iteration cap reached", "iterations", res.Iterations, "delta", res.Delta)
	} else {
		logger.Info("analysis converged", "iterations", res.Iterations, "delta", res.Delta, "elapsed", res.Elapsed)
	}
	return res, nil
}

// emit records evt, logging rather than failing the run on write errors.
func (r *Runner) emit(logger *log.Logger, evt telemetry.Event) {
	if err := r.Emitter.Emit(evt); err != nil {
		logger.Warn("telemetry write failed", "err", err)
	}
}
