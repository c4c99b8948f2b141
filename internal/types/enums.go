package types

// PlanningPolicy selects which forecast statistic each threshold is compared
// against.
type PlanningPolicy string

const (
	// PolicyConservative compares average wave height and peak wind.
	PolicyConservative PlanningPolicy = "conservative"
	// PolicyOptimistic compares average wave height and average wind.
	PolicyOptimistic PlanningPolicy = "optimistic"
	// PolicyAggressive compares minimum wave height and average wind.
	PolicyAggressive PlanningPolicy = "aggressive"
)

// Freshness grades how usable a cached price is.
type Freshness string

const (
	FreshnessFresh Freshness = "fresh"
	FreshnessStale Freshness = "stale"
	FreshnessNone  Freshness = "none"
)

// TriggerReason records why a worker run was requested. It never changes the
// gate decision.
type TriggerReason string

const (
	ReasonUserRequest    TriggerReason = "user_request"
	ReasonScheduled      TriggerReason = "scheduled"
	ReasonConditionsGood TriggerReason = "conditions_good"
)

// Valid reports whether r is a known reason.
func (r TriggerReason) Valid() bool {
	switch r {
	case ReasonUserRequest, ReasonScheduled, ReasonConditionsGood:
		return true
	}
	return false
}

// ConfidenceTier labels how far out the qualifying forecast reaches.
type ConfidenceTier string

const (
	TierConfident ConfidenceTier = "confident"
	TierTrend     ConfidenceTier = "trend"
	TierEarly     ConfidenceTier = "early"
	TierWatch     ConfidenceTier = "watch"
)

// HotelProvider selects the hotel deep-link target.
type HotelProvider string

const (
	HotelProviderHotellook HotelProvider = "hotellook"
	HotelProviderBooking   HotelProvider = "booking"
)

// DispatchMode selects how worker jobs leave the process.
type DispatchMode string

const (
	DispatchModeSQS    DispatchMode = "sqs"
	DispatchModeGitHub DispatchMode = "github"
)
