package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"surfalert/internal/types"
)

// AlertRuleRepository provides data access for the alert_rules table.
type AlertRuleRepository struct {
	db DBTX
}

// NewAlertRuleRepository creates a repository backed by db (pool or tx).
func NewAlertRuleRepository(db DBTX) *AlertRuleRepository {
	return &AlertRuleRepository{db: db}
}

const alertColumns = `a.id, a.user_id, a.name, a.spot_id,
	a.origin_code, a.destination_code,
	a.wave_min_m, a.wave_max_m, a.wind_max_kmh,
	a.forecast_window, a.planning_logic,
	a.is_active, a.paused_until,
	a.created_at, a.last_evaluated_at`

func scanAlertRule(row pgx.Row) (*types.AlertRule, error) {
	var (
		r      types.AlertRule
		name   *string
		origin *string
		dest   *string
		window *int
		policy *string
	)
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&name,
		&r.SpotID,
		&origin,
		&dest,
		&r.WaveMinM,
		&r.WaveMaxM,
		&r.WindMaxKmh,
		&window,
		&policy,
		&r.IsActive,
		&r.PausedUntil,
		&r.CreatedAt,
		&r.LastEvaluatedAt,
	)
	if err != nil {
		return nil, err
	}
	if name != nil {
		r.Name = *name
	}
	if origin != nil {
		r.OriginCode = *origin
	}
	if dest != nil {
		r.DestinationCode = *dest
	}
	if window != nil {
		r.ForecastWindow = *window
	}
	if policy != nil {
		r.PlanningLogic = types.PlanningPolicy(*policy)
	}
	return &r, nil
}

// GetByID returns the alert or a not_found_alert error.
func (r *AlertRuleRepository) GetByID(ctx context.Context, id string) (*types.AlertRule, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+alertColumns+`
		 FROM alert_rules a
		 WHERE a.id = $1`,
		id,
	)
	rule, err := scanAlertRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundAlert, "alert not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve alert", err)
	}
	return rule, nil
}

// ListEnabled returns up to limit active, unpaused alerts, least recently
// evaluated first.
func (r *AlertRuleRepository) ListEnabled(ctx context.Context, now time.Time, limit int) ([]*types.AlertRule, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+alertColumns+`
		 FROM alert_rules a
		 WHERE a.is_active
		   AND (a.paused_until IS NULL OR a.paused_until <= $1)
		 ORDER BY a.last_evaluated_at ASC NULLS FIRST, a.created_at ASC
		 LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list alerts", err)
	}
	defer rows.Close()

	var out []*types.AlertRule
	for rows.Next() {
		rule, scanErr := scanAlertRule(rows)
		if scanErr != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan alert row", scanErr)
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating alert rows", err)
	}
	return out, nil
}

// GetAnchor returns the alert's cooldown anchor.
func (r *AlertRuleRepository) GetAnchor(ctx context.Context, id string) (*types.CooldownAnchor, error) {
	var a types.CooldownAnchor
	err := r.db.QueryRow(ctx,
		`SELECT created_at, last_evaluated_at FROM alert_rules WHERE id = $1`,
		id,
	).Scan(&a.CreatedAt, &a.LastEvaluatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundAlert, "alert not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to read cooldown state", err)
	}
	return &a, nil
}

// ClaimEvaluation sets last_evaluated_at to now only if it still equals
// expected. It reports false when another writer got there first.
func (r *AlertRuleRepository) ClaimEvaluation(ctx context.Context, id string, expected *time.Time, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE alert_rules
		 SET last_evaluated_at = $3
		 WHERE id = $1
		   AND last_evaluated_at IS NOT DISTINCT FROM $2`,
		id, expected, now,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to claim evaluation", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseEvaluation puts previous back if the anchor still holds claimed.
func (r *AlertRuleRepository) ReleaseEvaluation(ctx context.Context, id string, claimed time.Time, previous *time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE alert_rules
		 SET last_evaluated_at = $3
		 WHERE id = $1
		   AND last_evaluated_at = $2`,
		id, claimed, previous,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to release evaluation", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ResetCooldowns clears every anchor so all alerts fall back to their
// creation time. Returns the number of rows changed.
func (r *AlertRuleRepository) ResetCooldowns(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE alert_rules SET last_evaluated_at = NULL WHERE last_evaluated_at IS NOT NULL`,
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to reset cooldowns", err)
	}
	return tag.RowsAffected(), nil
}
