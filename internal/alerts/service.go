// Package alerts orchestrates the per-alert flows: quick checks, forecast
// breakdowns, booking links and throttled worker triggers.
package alerts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"surfalert/internal/affiliates"
	"surfalert/internal/cooldown"
	"surfalert/internal/evaluation"
	"surfalert/internal/types"
)

// AlertStore reads alert rules.
type AlertStore interface {
	GetByID(ctx context.Context, id string) (*types.AlertRule, error)
	ResetCooldowns(ctx context.Context) (int64, error)
}

// ForecastStore returns the days of the newest cached batch for a spot.
type ForecastStore interface {
	LatestBatch(ctx context.Context, spotID string, from, to types.Date) ([]types.ForecastDay, error)
}

// PriceStore returns the latest price snapshot for a spot, or nil.
type PriceStore interface {
	Latest(ctx context.Context, spotID string) (*types.PriceSnapshot, error)
}

// Dispatcher hands a job to the price worker.
type Dispatcher interface {
	Name() string
	Dispatch(ctx context.Context, job types.WorkerJob) error
}

// LinkBuilder renders booking links for a trip.
type LinkBuilder interface {
	Links(origin, dest string, trip types.TripDates, subID string) types.BookingLinks
}

// Metrics is the subset of telemetry.Recorder the service uses.
type Metrics interface {
	RecordQuickCheck(ctx context.Context, freshness types.Freshness)
	RecordTrigger(ctx context.Context, reason types.TriggerReason, outcome string)
	RecordDispatch(ctx context.Context, provider string, duration time.Duration, err error)
}

// Deps bundles the collaborators of a Service.
type Deps struct {
	Alerts     AlertStore
	Forecasts  ForecastStore
	Prices     PriceStore
	Gate       *cooldown.Gate
	Dispatcher Dispatcher
	Links      LinkBuilder
	Metrics    Metrics
	Clock      types.Clock
	Logger     *slog.Logger

	// EstimatedRunTime is echoed to callers after a dispatch.
	EstimatedRunTime time.Duration
}

// Service implements the alert flows. Each public method reads the clock
// once and uses that instant throughout.
type Service struct {
	alerts     AlertStore
	forecasts  ForecastStore
	prices     PriceStore
	gate       *cooldown.Gate
	dispatcher Dispatcher
	links      LinkBuilder
	metrics    Metrics
	clock      types.Clock
	logger     *slog.Logger
	eta        time.Duration
}

// NewService creates a Service. Clock and Logger default to the real clock
// and slog.Default().
func NewService(d Deps) *Service {
	if d.Clock == nil {
		d.Clock = types.RealClock{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	return &Service{
		alerts:     d.Alerts,
		forecasts:  d.Forecasts,
		prices:     d.Prices,
		gate:       d.Gate,
		dispatcher: d.Dispatcher,
		links:      d.Links,
		metrics:    d.Metrics,
		clock:      d.Clock,
		logger:     d.Logger,
		eta:        d.EstimatedRunTime,
	}
}

type nopMetrics struct{}

func (nopMetrics) RecordQuickCheck(context.Context, types.Freshness)            {}
func (nopMetrics) RecordTrigger(context.Context, types.TriggerReason, string)   {}
func (nopMetrics) RecordDispatch(context.Context, string, time.Duration, error) {}

// ForecastSummary is the compact view of a qualification result.
type ForecastSummary struct {
	GoodDays        int                  `json:"good_days"`
	TotalDays       int                  `json:"total_days"`
	BestDay         *types.Date          `json:"best_day,omitempty"`
	QualifyingDates []types.Date         `json:"qualifying_dates"`
	Tier            types.ConfidenceTier `json:"tier,omitempty"`
}

// PriceData is the cached price shown with a quick check.
type PriceData struct {
	PriceEUR  *float64  `json:"price_eur,omitempty"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// QuickCheckResult answers "is it worth going, and is the price current".
type QuickCheckResult struct {
	AlertID             string              `json:"alert_id"`
	ConditionsGood      bool                `json:"conditions_good"`
	PriceDataAvailable  bool                `json:"price_data_available"`
	PriceFreshness      types.Freshness     `json:"price_freshness"`
	PriceWarning        string              `json:"price_warning,omitempty"`
	ShouldTriggerWorker bool                `json:"should_trigger_worker"`
	ForecastSummary     ForecastSummary     `json:"forecast_summary"`
	PriceData           *PriceData          `json:"price_data,omitempty"`
	Booking             *types.BookingLinks `json:"booking,omitempty"`
	CheckedAt           time.Time           `json:"checked_at"`
}

// ForecastDetails is the day-by-day breakdown behind a quick check.
type ForecastDetails struct {
	AlertID    string                `json:"alert_id"`
	Policy     types.PlanningPolicy  `json:"planning_logic"`
	WaveMinM   *float64              `json:"wave_min_m,omitempty"`
	WaveMaxM   *float64              `json:"wave_max_m,omitempty"`
	WindMaxKmh *float64              `json:"wind_max_kmh,omitempty"`
	From       types.Date            `json:"from"`
	To         types.Date            `json:"to"`
	Days       []types.DayEvaluation `json:"days"`
	Summary    ForecastSummary       `json:"summary"`
}

// TriggerOutcome reports what a trigger request did. A refused request is
// an outcome, not an error: Triggered is false and Decision says why.
type TriggerOutcome struct {
	Triggered     bool              `json:"triggered"`
	JobID         string            `json:"job_id,omitempty"`
	EstimatedTime time.Duration     `json:"-"`
	Decision      cooldown.Decision `json:"decision"`
}

func summarize(q types.QualificationResult) ForecastSummary {
	dates := q.QualifyingDates
	if dates == nil {
		dates = []types.Date{}
	}
	return ForecastSummary{
		GoodDays:        q.GoodDays,
		TotalDays:       q.TotalDays,
		BestDay:         q.BestDay,
		QualifyingDates: dates,
		Tier:            q.Tier,
	}
}

// loadRule fetches a rule that has a resolved spot.
func (s *Service) loadRule(ctx context.Context, alertID string) (*types.AlertRule, string, error) {
	rule, err := s.alerts.GetByID(ctx, alertID)
	if err != nil {
		return nil, "", asAppError(err, "failed to load alert")
	}
	if rule.SpotID == nil || *rule.SpotID == "" {
		return nil, "", types.NewAppError(types.ErrCodeNotFoundSpot, "alert has no surf spot linked", nil)
	}
	return rule, *rule.SpotID, nil
}

func (s *Service) qualify(ctx context.Context, rule *types.AlertRule, spotID string, today types.Date) (types.QualificationResult, error) {
	to := today.AddDays(rule.Window() - 1)
	batch, err := s.forecasts.LatestBatch(ctx, spotID, today, to)
	if err != nil {
		return types.QualificationResult{}, asAppError(err, "failed to load forecast")
	}
	return evaluation.EvaluateWindow(rule, batch, today), nil
}

// QuickCheck evaluates the rule against the newest forecast and grades the
// cached price.
func (s *Service) QuickCheck(ctx context.Context, alertID string) (*QuickCheckResult, error) {
	now := s.clock.Now()

	rule, spotID, err := s.loadRule(ctx, alertID)
	if err != nil {
		return nil, err
	}
	q, err := s.qualify(ctx, rule, spotID, types.DateOf(now))
	if err != nil {
		return nil, err
	}
	snap, err := s.prices.Latest(ctx, spotID)
	if err != nil {
		return nil, asAppError(err, "failed to load price")
	}
	price := evaluation.ClassifyPrice(snap, now)

	res := &QuickCheckResult{
		AlertID:             alertID,
		ConditionsGood:      q.ConditionsGood,
		PriceDataAvailable:  price.Available(),
		PriceFreshness:      price.Freshness,
		PriceWarning:        price.Warning,
		ShouldTriggerWorker: q.ConditionsGood && evaluation.NeedsRefresh(price),
		ForecastSummary:     summarize(q),
		CheckedAt:           now,
	}
	if price.Available() {
		res.PriceData = &PriceData{PriceEUR: snap.PriceEUR, CachedAt: snap.CachedAt, ExpiresAt: snap.ExpiresAt}
	}
	if q.ConditionsGood {
		links, err := s.bookingLinks(rule, q, snap, affiliates.SubID(alertID))
		if err == nil {
			res.Booking = &links
		}
	}

	s.metrics.RecordQuickCheck(ctx, price.Freshness)
	s.logger.InfoContext(ctx, "quick check",
		"alert_id", alertID,
		"conditions_good", res.ConditionsGood,
		"good_days", q.GoodDays,
		"price_freshness", price.Freshness,
		"should_trigger", res.ShouldTriggerWorker,
	)
	return res, nil
}

// bookingLinks derives trip dates and links, falling back to the snapshot's
// pre-rendered links for anything the builder cannot produce.
func (s *Service) bookingLinks(rule *types.AlertRule, q types.QualificationResult, snap *types.PriceSnapshot, subID string) (types.BookingLinks, error) {
	trip, err := evaluation.DeriveTripDates(q.QualifyingDates)
	if err != nil {
		return types.BookingLinks{}, err
	}
	links := s.links.Links(rule.OriginCode, rule.DestinationCode, trip, subID)
	if snap != nil {
		if links.FlightLink == "" {
			links.FlightLink = snap.FlightLink
		}
		if links.HotelLink == "" {
			links.HotelLink = snap.HotelLink
		}
	}
	return links, nil
}

// ForecastDetails returns the per-day verdicts for the rule's window.
func (s *Service) ForecastDetails(ctx context.Context, alertID string) (*ForecastDetails, error) {
	today := types.DateOf(s.clock.Now())

	rule, spotID, err := s.loadRule(ctx, alertID)
	if err != nil {
		return nil, err
	}
	q, err := s.qualify(ctx, rule, spotID, today)
	if err != nil {
		return nil, err
	}
	days := q.Days
	if days == nil {
		days = []types.DayEvaluation{}
	}
	return &ForecastDetails{
		AlertID:    alertID,
		Policy:     evaluation.ParsePolicy(string(rule.PlanningLogic)),
		WaveMinM:   rule.WaveMinM,
		WaveMaxM:   rule.WaveMaxM,
		WindMaxKmh: rule.WindMaxKmh,
		From:       today,
		To:         today.AddDays(rule.Window() - 1),
		Days:       days,
		Summary:    summarize(q),
	}, nil
}

// BookingLinks regenerates links for the current qualifying days. An empty
// subID uses the alert's default tracking id.
func (s *Service) BookingLinks(ctx context.Context, alertID, subID string) (*types.BookingLinks, error) {
	now := s.clock.Now()

	rule, spotID, err := s.loadRule(ctx, alertID)
	if err != nil {
		return nil, err
	}
	q, err := s.qualify(ctx, rule, spotID, types.DateOf(now))
	if err != nil {
		return nil, err
	}
	if !q.ConditionsGood {
		return nil, types.NewAppError(types.ErrCodeNotFoundQualifyingDays,
			"no qualifying surf days in the forecast window", evaluation.ErrNoQualifyingDays)
	}
	snap, err := s.prices.Latest(ctx, spotID)
	if err != nil {
		return nil, asAppError(err, "failed to load price")
	}
	if subID == "" {
		subID = affiliates.SubID(alertID)
	}
	links, err := s.bookingLinks(rule, q, snap, subID)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeNotFoundQualifyingDays, "no qualifying surf days", err)
	}
	return &links, nil
}

// Trigger asks for a worker run, subject to the alert's cooldown. The
// anchor is claimed before dispatch and released again if dispatch fails,
// so a failed dispatch does not start a cooldown.
func (s *Service) Trigger(ctx context.Context, alertID string, reason types.TriggerReason) (*TriggerOutcome, error) {
	if !reason.Valid() {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidReason,
			"reason must be one of user_request, scheduled, conditions_good", nil,
			map[string]any{"reason": reason})
	}
	now := s.clock.Now()

	rule, err := s.alerts.GetByID(ctx, alertID)
	if err != nil {
		return nil, asAppError(err, "failed to load alert")
	}
	if !rule.Enabled(now) {
		return nil, types.NewAppError(types.ErrCodeConflictAlertPaused, "alert is inactive or paused", nil)
	}

	d, err := s.gate.Check(ctx, alertID, reason, now)
	if err != nil {
		s.metrics.RecordTrigger(ctx, reason, types.OutcomeFailed)
		return nil, asAppError(err, "failed to read cooldown state")
	}
	if !d.Allowed() {
		s.metrics.RecordTrigger(ctx, reason, types.OutcomeCooling)
		return &TriggerOutcome{Decision: d}, nil
	}

	if err := s.gate.Claim(ctx, d); err != nil {
		if errors.Is(err, cooldown.ErrClaimLost) {
			return s.lostClaim(ctx, alertID, reason, now)
		}
		s.metrics.RecordTrigger(ctx, reason, types.OutcomeFailed)
		return nil, asAppError(err, "failed to claim evaluation")
	}

	job := types.WorkerJob{
		JobID:       uuid.NewString(),
		AlertID:     alertID,
		Reason:      reason,
		RequestedAt: d.Now,
		RequestID:   types.GetRequestID(ctx),
	}
	start := time.Now()
	err = s.dispatcher.Dispatch(ctx, job)
	s.metrics.RecordDispatch(ctx, s.dispatcher.Name(), time.Since(start), err)
	if err != nil {
		if rerr := s.gate.Release(ctx, d); rerr != nil {
			s.logger.ErrorContext(ctx, "failed to release evaluation claim",
				"alert_id", alertID, "error", rerr)
		}
		s.metrics.RecordTrigger(ctx, reason, types.OutcomeFailed)
		return nil, dispatchError(err)
	}

	s.metrics.RecordTrigger(ctx, reason, types.OutcomeDispatched)
	s.logger.InfoContext(ctx, "worker triggered",
		"alert_id", alertID,
		"reason", reason,
		"job_id", job.JobID,
		"dispatcher", s.dispatcher.Name(),
	)
	return &TriggerOutcome{Triggered: true, JobID: job.JobID, EstimatedTime: s.eta, Decision: d}, nil
}

// lostClaim re-reads the anchor after another request won the claim and
// reports the resulting cooldown.
func (s *Service) lostClaim(ctx context.Context, alertID string, reason types.TriggerReason, now time.Time) (*TriggerOutcome, error) {
	s.metrics.RecordTrigger(ctx, reason, types.OutcomeClaimLost)
	d, err := s.gate.Check(ctx, alertID, reason, now)
	if err != nil {
		return nil, asAppError(err, "failed to read cooldown state")
	}
	if d.Allowed() {
		// The winner released its claim in the meantime.
		return nil, types.NewAppError(types.ErrCodeConflictConcurrent,
			"evaluation state changed concurrently, retry the request", cooldown.ErrClaimLost)
	}
	return &TriggerOutcome{Decision: d}, nil
}

// ResetCooldowns clears every alert's anchor.
func (s *Service) ResetCooldowns(ctx context.Context) (int64, error) {
	n, err := s.alerts.ResetCooldowns(ctx)
	if err != nil {
		return 0, asAppError(err, "failed to reset cooldowns")
	}
	s.logger.WarnContext(ctx, "cooldowns reset", "updated_count", n)
	return n, nil
}

// asAppError passes AppErrors through and wraps anything else as an
// internal database error.
func asAppError(err error, msg string) error {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return types.NewAppError(types.ErrCodeInternalDB, msg, err)
}

func dispatchError(err error) error {
	var appErr *types.AppError
	if errors.As(err, &appErr) && appErr.Code == types.ErrCodeUpstreamWorkerDispatch {
		return err
	}
	return types.NewAppError(types.ErrCodeUpstreamWorkerDispatch, "failed to dispatch worker job", err)
}
