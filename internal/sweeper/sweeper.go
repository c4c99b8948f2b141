// Package sweeper runs the scheduled pass over all enabled alerts: quick
// check each one and trigger the worker where conditions are good and the
// price needs refreshing.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"surfalert/internal/alerts"
	"surfalert/internal/types"
)

// Defaults used when the input leaves them unset.
const (
	DefaultConcurrency = 8
	DefaultMaxAlerts   = 500
)

// AlertLister lists alerts due for a sweep.
type AlertLister interface {
	ListEnabled(ctx context.Context, now time.Time, limit int) ([]*types.AlertRule, error)
}

// Evaluator is the part of alerts.Service a sweep drives.
type Evaluator interface {
	QuickCheck(ctx context.Context, alertID string) (*alerts.QuickCheckResult, error)
	Trigger(ctx context.Context, alertID string, reason types.TriggerReason) (*alerts.TriggerOutcome, error)
}

// Metrics records per-outcome sweep counts.
type Metrics interface {
	RecordSweep(ctx context.Context, outcome string, count int)
}

// Input is the scheduled event payload. Zero values use the configured
// defaults; DryRun checks alerts without triggering.
type Input struct {
	MaxAlerts   int  `json:"max_alerts"`
	Concurrency int  `json:"concurrency"`
	DryRun      bool `json:"dry_run"`
}

// Summary counts what happened to each listed alert.
type Summary struct {
	Checked    int   `json:"checked"`
	Triggered  int   `json:"triggered"`
	Cooling    int   `json:"cooling"`
	Skipped    int   `json:"skipped"`
	Failed     int   `json:"failed"`
	DurationMS int64 `json:"duration_ms"`
}

// Sweeper evaluates enabled alerts with bounded concurrency.
type Sweeper struct {
	alerts      AlertLister
	evaluator   Evaluator
	metrics     Metrics
	clock       types.Clock
	logger      *slog.Logger
	concurrency int
	maxAlerts   int
}

// New creates a Sweeper. Non-positive concurrency or maxAlerts fall back to
// the package defaults.
func New(lister AlertLister, eval Evaluator, metrics Metrics, clock types.Clock, logger *slog.Logger, concurrency, maxAlerts int) *Sweeper {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	if maxAlerts < 1 {
		maxAlerts = DefaultMaxAlerts
	}
	return &Sweeper{
		alerts:      lister,
		evaluator:   eval,
		metrics:     metrics,
		clock:       clock,
		logger:      logger,
		concurrency: concurrency,
		maxAlerts:   maxAlerts,
	}
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeTriggered
	outcomeCooling
	outcomeFailed
)

// Run sweeps once. Only listing failures abort the run; a failure on one
// alert is counted and the sweep continues. A cancelled ctx still returns
// the partial summary alongside the error.
func (s *Sweeper) Run(ctx context.Context, in Input) (Summary, error) {
	began := time.Now()
	now := s.clock.Now()
	limit := s.maxAlerts
	if in.MaxAlerts > 0 {
		limit = in.MaxAlerts
	}
	workers := s.concurrency
	if in.Concurrency > 0 {
		workers = in.Concurrency
	}

	rules, err := s.alerts.ListEnabled(ctx, now, limit)
	if err != nil {
		return Summary{}, err
	}

	var (
		mu  sync.Mutex
		sum Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, rule := range rules {
		id := rule.ID
		g.Go(func() error {
			o := s.sweepOne(gctx, id, in.DryRun)
			mu.Lock()
			defer mu.Unlock()
			sum.Checked++
			switch o {
			case outcomeTriggered:
				sum.Triggered++
			case outcomeCooling:
				sum.Cooling++
			case outcomeFailed:
				sum.Failed++
			default:
				sum.Skipped++
			}
			return nil
		})
	}
	waitErr := g.Wait()

	sum.DurationMS = time.Since(began).Milliseconds()
	s.record(ctx, sum)
	s.logger.InfoContext(ctx, "sweep complete",
		"checked", sum.Checked,
		"triggered", sum.Triggered,
		"cooling", sum.Cooling,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
		"dry_run", in.DryRun,
	)
	if waitErr != nil {
		return sum, waitErr
	}
	return sum, ctx.Err()
}

func (s *Sweeper) sweepOne(ctx context.Context, alertID string, dryRun bool) outcome {
	if ctx.Err() != nil {
		return outcomeFailed
	}
	res, err := s.evaluator.QuickCheck(ctx, alertID)
	if err != nil {
		s.logger.WarnContext(ctx, "sweep quick check failed", "alert_id", alertID, "error", err)
		return outcomeFailed
	}
	if !res.ShouldTriggerWorker || dryRun {
		return outcomeSkipped
	}

	out, err := s.evaluator.Trigger(ctx, alertID, types.ReasonScheduled)
	if err != nil {
		var appErr *types.AppError
		if errors.As(err, &appErr) && appErr.Code == types.ErrCodeConflictAlertPaused {
			return outcomeSkipped
		}
		s.logger.WarnContext(ctx, "sweep trigger failed", "alert_id", alertID, "error", err)
		return outcomeFailed
	}
	if !out.Triggered {
		return outcomeCooling
	}
	return outcomeTriggered
}

func (s *Sweeper) record(ctx context.Context, sum Summary) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordSweep(ctx, types.OutcomeDispatched, sum.Triggered)
	s.metrics.RecordSweep(ctx, types.OutcomeCooling, sum.Cooling)
	s.metrics.RecordSweep(ctx, types.OutcomeFailed, sum.Failed)
}
