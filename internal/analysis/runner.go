// Package analysis drives the dysregulation model: it validates a run's
// inputs and parameters, relays progress, and normalizes the model's raw
// output into a core.Result.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dysregnet/dysregnet-explorer/internal/observability"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// ProgressFunc receives (current, total) progress counts.
type ProgressFunc func(current, total int)

// Inputs are the data of one run.
type Inputs struct {
	Expression *core.ExpressionMatrix
	Meta       *core.Metadata
	Network    *core.Network

	// Control holds reference control samples already aligned to the
	// expression gene axis. When set they join the run as condition 0.
	Control *core.ExpressionMatrix
}

// RawResult is what a model returns before normalization. Columns are edge
// labels such as "A,B" or "A:B".
type RawResult struct {
	Samples []string
	Columns []string
	Values  [][]float64 // [sample][column]
}

// Model computes dysregulation scores. Implementations call progress
// directly while they work.
type Model interface {
	Fit(ctx context.Context, in Inputs, params core.Parameters, progress ProgressFunc) (*RawResult, error)
}

// Config configures a Runner.
type Config struct {
	Model   Model
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Runner executes analysis runs. It holds no per-run state.
type Runner struct {
	model   Model
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRunner creates a Runner.
func NewRunner(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{model: cfg.Model, logger: logger, metrics: cfg.Metrics}
}

// Run validates in and params, fits the model and returns its normalized
// result. Repeated gene columns are resolved keep-first before the model
// sees them. Progress totals equal the number of network edges and never
// decrease. A cancelled ctx yields core.ErrCancelled; any model error
// core.ErrModelFailure.
func (r *Runner) Run(ctx context.Context, in Inputs, params core.Parameters, progress ProgressFunc) (*core.Result, error) {
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateRun(in, params); err != nil {
		return nil, err
	}
	if in.Expression != nil {
		in.Expression = in.Expression.UniqueGenes()
	}
	merged, err := mergeControl(in, params)
	if err != nil {
		return nil, err
	}

	tracker := newProgressTracker(len(in.Network.Edges), progress)
	tracker.report(0)

	start := time.Now()
	r.metrics.RunStarted()
	r.logger.Info("analysis started",
		"samples", len(merged.Expression.Samples),
		"genes", len(merged.Expression.Genes),
		"edges", len(in.Network.Edges),
		"condition", params.Condition)

	raw, err := r.model.Fit(ctx, merged, params, func(current, _ int) { tracker.report(current) })
	if err != nil || ctx.Err() != nil {
		err = classifyFitError(ctx, err)
		r.metrics.RunFinished(string(core.Kind(err)), time.Since(start))
		r.logger.Info("analysis stopped", "kind", core.Kind(err), "error", err)
		return nil, err
	}

	res, err := Normalize(raw)
	if err != nil {
		err = fmt.Errorf("%w: %w", core.ErrModelFailure, err)
		r.metrics.RunFinished(string(core.KindModelFailure), time.Since(start))
		return nil, err
	}

	tracker.report(tracker.total)
	r.metrics.RunFinished("success", time.Since(start))
	r.logger.Info("analysis finished", "edges", len(res.Edges), "duration", time.Since(start))
	return res, nil
}

func classifyFitError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return core.ErrCancelled
	}
	if err == nil {
		err = errors.New("model returned no result")
	}
	return fmt.Errorf("%w: %w", core.ErrModelFailure, err)
}

// progressTracker forwards progress, dropping values below the highest seen.
type progressTracker struct {
	mu      sync.Mutex
	current int
	total   int
	started bool
	fn      ProgressFunc
}

func newProgressTracker(total int, fn ProgressFunc) *progressTracker {
	return &progressTracker{total: total, fn: fn}
}

func (t *progressTracker) report(current int) {
	if t.fn == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if current > t.total {
		current = t.total
	}
	if t.started && current < t.current {
		return
	}
	t.started = true
	t.current = current
	t.fn(current, t.total)
}
