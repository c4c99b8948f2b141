package types

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultForecastWindow is used for legacy rows stored without a window.
const DefaultForecastWindow = 5

// AlertRule is a user's surf alert: where to go, from where, and what the sea
// needs to look like.
type AlertRule struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`

	// SpotID links the rule to cached forecast and price data. Nil when
	// the spot has not been resolved yet.
	SpotID *string `json:"spot_id,omitempty"`

	OriginCode      string `json:"origin_code"`
	DestinationCode string `json:"destination_code"`

	WaveMinM   *float64 `json:"wave_min_m,omitempty"`
	WaveMaxM   *float64 `json:"wave_max_m,omitempty"`
	WindMaxKmh *float64 `json:"wind_max_kmh,omitempty"`

	ForecastWindow int            `json:"forecast_window"`
	PlanningLogic  PlanningPolicy `json:"planning_logic"`

	IsActive    bool       `json:"is_active"`
	PausedUntil *time.Time `json:"paused_until,omitempty"`

	CreatedAt       time.Time  `json:"created_at"`
	LastEvaluatedAt *time.Time `json:"last_evaluated_at,omitempty"`
}

// Thresholds returns the rule's wave and wind bounds.
func (r *AlertRule) Thresholds() Thresholds {
	return Thresholds{WaveMin: r.WaveMinM, WaveMax: r.WaveMaxM, WindMax: r.WindMaxKmh}
}

// Window returns the forecast window in days, falling back to
// DefaultForecastWindow when the stored value is not positive.
func (r *AlertRule) Window() int {
	if r.ForecastWindow < 1 {
		return DefaultForecastWindow
	}
	return r.ForecastWindow
}

// Enabled reports whether the rule should be evaluated at now.
func (r *AlertRule) Enabled(now time.Time) bool {
	if !r.IsActive {
		return false
	}
	return r.PausedUntil == nil || !now.Before(*r.PausedUntil)
}

// Validate checks the invariants enforced when a rule is written.
func (r *AlertRule) Validate() error {
	if r.ForecastWindow < 1 {
		return NewAppError(ErrCodeValidationWindow, "forecast_window must be at least 1 day", nil)
	}
	if r.WaveMinM != nil && r.WaveMaxM != nil && *r.WaveMaxM < *r.WaveMinM {
		return NewAppErrorWithDetails(ErrCodeValidationThresholds,
			"wave_max_m must not be less than wave_min_m", nil,
			map[string]any{"wave_min_m": *r.WaveMinM, "wave_max_m": *r.WaveMaxM})
	}
	return nil
}

// CooldownAnchor is the stored throttling state of an alert.
type CooldownAnchor struct {
	CreatedAt       time.Time
	LastEvaluatedAt *time.Time
}

// Thresholds bundles the optional bounds of a rule. A nil bound is
// unconstrained.
type Thresholds struct {
	WaveMin *float64
	WaveMax *float64
	WindMax *float64
}

var (
	_ sql.Scanner   = (*Stats)(nil)
	_ driver.Valuer = Stats{}
)

// Stats summarises a daily series of one variable.
type Stats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// Scan implements sql.Scanner for JSONB columns.
func (s *Stats) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*s = Stats{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("stats: unsupported scan type %T", value)
	}
	return json.Unmarshal(data, s)
}

// Value implements driver.Valuer.
func (s Stats) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// ForecastDay is one day of a cached forecast batch for a spot.
type ForecastDay struct {
	SpotID    string    `json:"spot_id"`
	Date      Date      `json:"date"`
	Wave      Stats     `json:"wave"`
	Wind      Stats     `json:"wind"`
	MorningOK bool      `json:"morning_ok"`
	CachedAt  time.Time `json:"cached_at"`
}

// PriceSnapshot is the latest cached travel price for a spot.
type PriceSnapshot struct {
	SpotID   string   `json:"spot_id"`
	PriceEUR *float64 `json:"price_eur,omitempty"`

	// Pre-rendered links from the last worker run, used when fresh links
	// cannot be built.
	FlightLink string `json:"flight_link,omitempty"`
	HotelLink  string `json:"hotel_link,omitempty"`

	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DayVerdict is the outcome of checking one day against a rule.
type DayVerdict struct {
	WaveOK    bool `json:"wave_ok"`
	WindOK    bool `json:"wind_ok"`
	MorningOK bool `json:"morning_ok"`
	OverallOK bool `json:"overall_ok"`
}

// DayEvaluation pairs a day with its verdict and the statistic that was
// compared.
type DayEvaluation struct {
	Date         Date       `json:"date"`
	Wave         Stats      `json:"wave"`
	Wind         Stats      `json:"wind"`
	WaveValue    float64    `json:"wave_value"`
	WindValue    float64    `json:"wind_value"`
	WaveBelowMin bool       `json:"wave_below_min"`
	WaveAboveMax bool       `json:"wave_above_max"`
	WindAboveMax bool       `json:"wind_above_max"`
	Verdict      DayVerdict `json:"verdict"`
}

// QualificationResult summarises a rule's forecast window.
type QualificationResult struct {
	ConditionsGood  bool            `json:"conditions_good"`
	TotalDays       int             `json:"total_days"`
	GoodDays        int             `json:"good_days"`
	QualifyingDates []Date          `json:"qualifying_dates"`
	BestDay         *Date           `json:"best_day,omitempty"`
	Tier            ConfidenceTier  `json:"tier,omitempty"`
	Days            []DayEvaluation `json:"-"`
}

// PriceAssessment is a freshness verdict for a price snapshot.
type PriceAssessment struct {
	Freshness Freshness      `json:"freshness"`
	Warning   string         `json:"warning,omitempty"`
	Snapshot  *PriceSnapshot `json:"-"`
}

// Available reports whether a usable price was found.
func (a PriceAssessment) Available() bool {
	return a.Freshness != FreshnessNone
}

// TripDates is a derived depart/return pair.
type TripDates struct {
	Depart Date `json:"depart"`
	Return Date `json:"return"`
	Length int  `json:"length_days"`
}

// BookingLinks are deep links for the derived trip.
type BookingLinks struct {
	Trip       TripDates `json:"trip"`
	FlightLink string    `json:"flight_link,omitempty"`
	HotelLink  string    `json:"hotel_link,omitempty"`
}

// WorkerJob is the message that asks the downstream worker to refresh an
// alert's prices and notify its owner.
type WorkerJob struct {
	JobID       string        `json:"job_id"`
	AlertID     string        `json:"alert_id"`
	Reason      TriggerReason `json:"reason"`
	RequestedAt time.Time     `json:"requested_at"`
	RequestID   string        `json:"request_id,omitempty"`
}
