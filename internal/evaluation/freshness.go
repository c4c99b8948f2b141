package evaluation

import (
	"time"

	"surfalert/internal/types"
)

// Price age limits.
const (
	FreshPriceMaxAge  = 6 * time.Hour
	RecentPriceMaxAge = 24 * time.Hour
)

// Freshness warnings shown next to price data.
const (
	WarningNoPrice       = "No price data available - worker will run soon"
	WarningPriceExpired  = "Price data expired - worker will run soon"
	WarningPriceAging    = "Price data is a few hours old - check current rates"
	WarningPriceOutdated = "Price data is outdated - check current rates"
)

// ClassifyPrice grades a snapshot at now. Expiry wins over age: a snapshot
// past its expires-at is none even if it was cached a minute ago.
func ClassifyPrice(p *types.PriceSnapshot, now time.Time) types.PriceAssessment {
	if p == nil {
		return types.PriceAssessment{Freshness: types.FreshnessNone, Warning: WarningNoPrice}
	}
	if now.After(p.ExpiresAt) {
		return types.PriceAssessment{Freshness: types.FreshnessNone, Warning: WarningPriceExpired, Snapshot: p}
	}

	age := now.Sub(p.CachedAt)
	switch {
	case age <= FreshPriceMaxAge:
		return types.PriceAssessment{Freshness: types.FreshnessFresh, Snapshot: p}
	case age <= RecentPriceMaxAge:
		return types.PriceAssessment{Freshness: types.FreshnessStale, Warning: WarningPriceAging, Snapshot: p}
	default:
		return types.PriceAssessment{Freshness: types.FreshnessStale, Warning: WarningPriceOutdated, Snapshot: p}
	}
}

// NeedsRefresh reports whether the assessment calls for a worker run.
func NeedsRefresh(a types.PriceAssessment) bool {
	return a.Freshness == types.FreshnessStale || a.Freshness == types.FreshnessNone
}
