package evaluation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"surfalert/internal/types"
)

func TestClassifyPrice(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	snap := func(age, ttl time.Duration) *types.PriceSnapshot {
		cached := now.Add(-age)
		return &types.PriceSnapshot{SpotID: "spot-1", CachedAt: cached, ExpiresAt: cached.Add(ttl)}
	}

	tests := []struct {
		name      string
		snapshot  *types.PriceSnapshot
		freshness types.Freshness
		warning   string
	}{
		{"absent", nil, types.FreshnessNone, WarningNoPrice},
		{"just cached", snap(time.Minute, 48*time.Hour), types.FreshnessFresh, ""},
		{"exactly six hours", snap(6*time.Hour, 48*time.Hour), types.FreshnessFresh, ""},
		{"just over six hours", snap(6*time.Hour+time.Second, 48*time.Hour), types.FreshnessStale, WarningPriceAging},
		{"exactly a day", snap(24*time.Hour, 48*time.Hour), types.FreshnessStale, WarningPriceAging},
		{"over a day", snap(30*time.Hour, 48*time.Hour), types.FreshnessStale, WarningPriceOutdated},
		{"expired fresh price", snap(time.Minute, 30*time.Second), types.FreshnessNone, WarningPriceExpired},
		{"expiring now", snap(time.Hour, time.Hour), types.FreshnessFresh, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyPrice(tc.snapshot, now)
			assert.Equal(t, tc.freshness, got.Freshness)
			assert.Equal(t, tc.warning, got.Warning)
		})
	}
}

func TestNeedsRefresh(t *testing.T) {
	assert.False(t, NeedsRefresh(types.PriceAssessment{Freshness: types.FreshnessFresh}))
	assert.True(t, NeedsRefresh(types.PriceAssessment{Freshness: types.FreshnessStale}))
	assert.True(t, NeedsRefresh(types.PriceAssessment{Freshness: types.FreshnessNone}))
}
