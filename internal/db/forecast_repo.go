package db

import (
	"context"

	"surfalert/internal/types"
)

// ForecastCacheRepository reads the forecast_cache table written by the
// forecast fetcher.
type ForecastCacheRepository struct {
	db DBTX
}

// NewForecastCacheRepository creates a repository backed by db.
func NewForecastCacheRepository(db DBTX) *ForecastCacheRepository {
	return &ForecastCacheRepository{db: db}
}

// LatestBatch returns the days of the most recently cached batch for spotID
// whose date lies in [from, to], ordered by date. Rows from older batches
// are never mixed in. An empty slice means nothing is cached.
func (r *ForecastCacheRepository) LatestBatch(ctx context.Context, spotID string, from, to types.Date) ([]types.ForecastDay, error) {
	rows, err := r.db.Query(ctx,
		`SELECT f.spot_id, f.date, f.wave_stats, f.wind_stats, f.morning_ok, f.cached_at
		 FROM forecast_cache f
		 WHERE f.spot_id = $1
		   AND f.cached_at = (SELECT MAX(cached_at) FROM forecast_cache WHERE spot_id = $1)
		   AND f.date BETWEEN $2 AND $3
		 ORDER BY f.date ASC`,
		spotID, from, to,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query forecast cache", err)
	}
	defer rows.Close()

	days := []types.ForecastDay{}
	for rows.Next() {
		var d types.ForecastDay
		if err := rows.Scan(&d.SpotID, &d.Date, &d.Wave, &d.Wind, &d.MorningOK, &d.CachedAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan forecast row", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating forecast rows", err)
	}
	return days, nil
}
