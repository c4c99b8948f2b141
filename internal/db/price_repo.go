package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"surfalert/internal/types"
)

// PriceCacheRepository reads the price_cache table written by the worker.
type PriceCacheRepository struct {
	db DBTX
}

// NewPriceCacheRepository creates a repository backed by db.
func NewPriceCacheRepository(db DBTX) *PriceCacheRepository {
	return &PriceCacheRepository{db: db}
}

// Latest returns the newest price for spotID, or nil when none is cached.
// Expired rows are returned as-is; callers grade them.
func (r *PriceCacheRepository) Latest(ctx context.Context, spotID string) (*types.PriceSnapshot, error) {
	var (
		p      types.PriceSnapshot
		flight *string
		hotel  *string
	)
	err := r.db.QueryRow(ctx,
		`SELECT spot_id, price_eur, affiliate_link, hotel_link, cached_at, expires_at
		 FROM price_cache
		 WHERE spot_id = $1
		 ORDER BY cached_at DESC
		 LIMIT 1`,
		spotID,
	).Scan(&p.SpotID, &p.PriceEUR, &flight, &hotel, &p.CachedAt, &p.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query price cache", err)
	}
	if flight != nil {
		p.FlightLink = *flight
	}
	if hotel != nil {
		p.HotelLink = *hotel
	}
	return &p, nil
}
