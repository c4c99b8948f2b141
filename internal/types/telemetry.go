package types

// CloudWatch metric names and dimensions.
const (
	MetricQuickCheck       = "QuickCheck"
	MetricTriggerDecision  = "TriggerDecision"
	MetricWorkerDispatch   = "WorkerDispatch"
	MetricSweepAlerts      = "SweepAlerts"
	MetricExternalAPIError = "ExternalAPIFailure"

	DimFreshness = "Freshness"
	DimOutcome   = "Outcome"
	DimReason    = "Reason"
	DimProvider  = "Provider"

	MetricNamespace = "SurfAlert"
)

// Trigger outcomes as reported in the Outcome dimension.
const (
	OutcomeDispatched = "dispatched"
	OutcomeCooling    = "cooling"
	OutcomeClaimLost  = "claim_lost"
	OutcomeFailed     = "failed"
)
