package sweeper

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surfalert/internal/alerts"
	"surfalert/internal/cooldown"
	"surfalert/internal/types"
)

var now = time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC)

type fakeLister struct {
	rules    []*types.AlertRule
	err      error
	gotLimit int
	gotNow   time.Time
}

func (f *fakeLister) ListEnabled(_ context.Context, at time.Time, limit int) ([]*types.AlertRule, error) {
	f.gotNow, f.gotLimit = at, limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.rules) {
		return f.rules[:limit], nil
	}
	return f.rules, nil
}

// scriptedEvaluator answers per alert id.
type scriptedEvaluator struct {
	check   map[string]*alerts.QuickCheckResult
	trigger map[string]*alerts.TriggerOutcome
	errs    map[string]error

	mu       sync.Mutex
	reasons  []types.TriggerReason
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (e *scriptedEvaluator) QuickCheck(_ context.Context, id string) (*alerts.QuickCheckResult, error) {
	n := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		p := e.peak.Load()
		if n <= p || e.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	if res, ok := e.check[id]; ok {
		return res, nil
	}
	return nil, errors.New("connection reset")
}

func (e *scriptedEvaluator) Trigger(_ context.Context, id string, reason types.TriggerReason) (*alerts.TriggerOutcome, error) {
	e.mu.Lock()
	e.reasons = append(e.reasons, reason)
	e.mu.Unlock()
	if err := e.errs[id]; err != nil {
		return nil, err
	}
	return e.trigger[id], nil
}

type fakeMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *fakeMetrics) RecordSweep(_ context.Context, outcome string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[outcome] = count
}

func rules(ids ...string) []*types.AlertRule {
	out := make([]*types.AlertRule, len(ids))
	for i, id := range ids {
		out[i] = &types.AlertRule{ID: id, IsActive: true}
	}
	return out
}

func TestRunCountsOutcomes(t *testing.T) {
	lister := &fakeLister{rules: rules("go", "cool", "fresh", "flat", "broken", "queue", "paused")}
	eval := &scriptedEvaluator{
		check: map[string]*alerts.QuickCheckResult{
			"go":     {ConditionsGood: true, ShouldTriggerWorker: true},
			"cool":   {ConditionsGood: true, ShouldTriggerWorker: true},
			"fresh":  {ConditionsGood: true, ShouldTriggerWorker: false},
			"flat":   {ConditionsGood: false},
			"queue":  {ConditionsGood: true, ShouldTriggerWorker: true},
			"paused": {ConditionsGood: true, ShouldTriggerWorker: true},
		},
		trigger: map[string]*alerts.TriggerOutcome{
			"go":   {Triggered: true, JobID: "job-1"},
			"cool": {Decision: cooldown.Decision{State: cooldown.StateCooling}},
		},
		errs: map[string]error{
			"queue":  types.NewAppError(types.ErrCodeUpstreamWorkerDispatch, "queue down", nil),
			"paused": types.NewAppError(types.ErrCodeConflictAlertPaused, "paused", nil),
		},
	}
	metrics := &fakeMetrics{}
	s := New(lister, eval, metrics, types.FixedClock(now), nil, 3, 100)

	sum, err := s.Run(context.Background(), Input{})
	require.NoError(t, err)

	assert.Equal(t, 7, sum.Checked)
	assert.Equal(t, 1, sum.Triggered)
	assert.Equal(t, 1, sum.Cooling)
	assert.Equal(t, 3, sum.Skipped)
	assert.Equal(t, 2, sum.Failed)

	assert.True(t, lister.gotNow.Equal(now))
	assert.Equal(t, 100, lister.gotLimit)
	for _, r := range eval.reasons {
		assert.Equal(t, types.ReasonScheduled, r)
	}
	assert.Equal(t, map[string]int{
		types.OutcomeDispatched: 1,
		types.OutcomeCooling:    1,
		types.OutcomeFailed:     2,
	}, metrics.counts)
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	ids := make([]string, 20)
	check := map[string]*alerts.QuickCheckResult{}
	for i := range ids {
		ids[i] = string(rune('a' + i))
		check[ids[i]] = &alerts.QuickCheckResult{}
	}
	eval := &scriptedEvaluator{check: check}
	s := New(&fakeLister{rules: rules(ids...)}, eval, nil, types.FixedClock(now), nil, 8, 0)

	sum, err := s.Run(context.Background(), Input{Concurrency: 2})
	require.NoError(t, err)
	assert.Equal(t, 20, sum.Skipped)
	assert.LessOrEqual(t, eval.peak.Load(), int32(2))
}

func TestRunDryRunNeverTriggers(t *testing.T) {
	eval := &scriptedEvaluator{check: map[string]*alerts.QuickCheckResult{
		"go": {ConditionsGood: true, ShouldTriggerWorker: true},
	}}
	s := New(&fakeLister{rules: rules("go")}, eval, nil, types.FixedClock(now), nil, 0, 0)

	sum, err := s.Run(context.Background(), Input{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Empty(t, eval.reasons)
}

func TestRunMaxAlertsOverride(t *testing.T) {
	lister := &fakeLister{rules: rules("a", "b", "c")}
	eval := &scriptedEvaluator{check: map[string]*alerts.QuickCheckResult{"a": {}, "b": {}, "c": {}}}
	s := New(lister, eval, nil, types.FixedClock(now), nil, 0, 0)

	sum, err := s.Run(context.Background(), Input{MaxAlerts: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, lister.gotLimit)
	assert.Equal(t, 2, sum.Checked)
}

func TestRunListFailure(t *testing.T) {
	s := New(&fakeLister{err: errors.New("db down")}, &scriptedEvaluator{}, nil, types.FixedClock(now), nil, 0, 0)

	_, err := s.Run(context.Background(), Input{})
	assert.EqualError(t, err, "db down")
}

func TestRunCancelledContextReturnsPartialSummary(t *testing.T) {
	eval := &scriptedEvaluator{check: map[string]*alerts.QuickCheckResult{"a": {}, "b": {}}}
	s := New(&fakeLister{rules: rules("a", "b")}, eval, nil, types.FixedClock(now), nil, 1, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := s.Run(ctx, Input{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, sum.Checked)
	assert.Equal(t, 2, sum.Failed)
	assert.Empty(t, eval.reasons)
}
