// Package cooldown throttles worker runs per alert. Each alert carries one
// anchor timestamp (last evaluated, or created when never evaluated); a run
// may start only once the anchor is older than the alert's cooldown, and
// starting one moves the anchor with a single conditional write so that
// racing requests cannot both win.
package cooldown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"surfalert/internal/types"
)

// Cooldown lengths.
const (
	NewAlertAge      = 2 * time.Hour
	NewAlertCooldown = 2 * time.Hour
	RegularCooldown  = 6 * time.Hour
)

// State is the gate's view of one alert.
type State string

const (
	StateCooling  State = "cooling"
	StateEligible State = "eligible"
)

// ErrClaimLost means another request moved the anchor first.
var ErrClaimLost = errors.New("cooldown: evaluation already claimed by another request")

// Decision is the gate's answer for one request.
type Decision struct {
	AlertID string              `json:"alert_id"`
	Reason  types.TriggerReason `json:"reason"`
	State   State               `json:"state"`

	Cooldown      time.Duration `json:"-"`
	Reference     time.Time     `json:"reference"`
	CooldownUntil time.Time     `json:"cooldown_until"`

	// RemainingMinutes is rounded up; zero when eligible.
	RemainingMinutes int `json:"remaining_minutes"`

	// Now and Previous are the values a Claim must compare-and-swap.
	Now      time.Time  `json:"-"`
	Previous *time.Time `json:"-"`
}

// Allowed reports whether the request may dispatch.
func (d Decision) Allowed() bool { return d.State == StateEligible }

// RetryAfter is the wait until the alert becomes eligible.
func (d Decision) RetryAfter() time.Duration {
	if d.Allowed() {
		return 0
	}
	return d.CooldownUntil.Sub(d.Now)
}

// CooldownFor returns the cooldown that applies to an alert created at
// createdAt, observed at now.
func CooldownFor(createdAt, now time.Time) time.Duration {
	if now.Sub(createdAt) < NewAlertAge {
		return NewAlertCooldown
	}
	return RegularCooldown
}

// Decide computes the gate state. It is pure; the reason is carried through
// for logging only.
func Decide(createdAt time.Time, lastEvaluatedAt *time.Time, now time.Time, reason types.TriggerReason) Decision {
	ref := createdAt
	if lastEvaluatedAt != nil {
		ref = *lastEvaluatedAt
	}
	cd := CooldownFor(createdAt, now)
	until := ref.Add(cd)

	d := Decision{
		Reason:        reason,
		State:         StateEligible,
		Cooldown:      cd,
		Reference:     ref,
		CooldownUntil: until,
		Now:           now,
		Previous:      lastEvaluatedAt,
	}
	if now.Before(until) {
		d.State = StateCooling
		d.RemainingMinutes = int(math.Ceil(until.Sub(now).Minutes()))
	}
	return d
}

// Store persists anchors. ClaimEvaluation must be a single atomic
// conditional write: set last_evaluated_at to now only if it still equals
// expected (nil matching nil), reporting whether the row changed.
type Store interface {
	GetAnchor(ctx context.Context, alertID string) (*types.CooldownAnchor, error)
	ClaimEvaluation(ctx context.Context, alertID string, expected *time.Time, now time.Time) (bool, error)
	ReleaseEvaluation(ctx context.Context, alertID string, claimed time.Time, previous *time.Time) (bool, error)
}

// Gate applies Decide against a Store.
type Gate struct {
	store  Store
	logger *slog.Logger
}

// NewGate creates a Gate. A nil logger falls back to slog.Default().
func NewGate(store Store, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{store: store, logger: logger}
}

// Check reads the alert's anchor and decides. A read failure returns the
// error; callers must not dispatch in that case.
func (g *Gate) Check(ctx context.Context, alertID string, reason types.TriggerReason, now time.Time) (Decision, error) {
	// Stored timestamps have microsecond precision; Claim and Release
	// compare against them.
	now = now.UTC().Truncate(time.Microsecond)

	anchor, err := g.store.GetAnchor(ctx, alertID)
	if err != nil {
		return Decision{AlertID: alertID, Reason: reason, State: StateCooling, Now: now}, err
	}
	d := Decide(anchor.CreatedAt, anchor.LastEvaluatedAt, now, reason)
	d.AlertID = alertID

	g.logger.InfoContext(ctx, "cooldown check",
		"alert_id", alertID,
		"reason", reason,
		"state", d.State,
		"remaining_minutes", d.RemainingMinutes,
	)
	return d, nil
}

// Claim moves the anchor to d.Now if nobody else has moved it since d was
// computed. It returns ErrClaimLost when another request won the race.
func (g *Gate) Claim(ctx context.Context, d Decision) error {
	if !d.Allowed() {
		return fmt.Errorf("cooldown: cannot claim alert %s while %s", d.AlertID, d.State)
	}
	ok, err := g.store.ClaimEvaluation(ctx, d.AlertID, d.Previous, d.Now)
	if err != nil {
		return err
	}
	if !ok {
		g.logger.WarnContext(ctx, "cooldown claim lost", "alert_id", d.AlertID, "reason", d.Reason)
		return ErrClaimLost
	}
	return nil
}

// Release restores the anchor a successful Claim replaced, provided nobody
// has moved it again. Used when the dispatch that followed the claim failed.
func (g *Gate) Release(ctx context.Context, d Decision) error {
	ok, err := g.store.ReleaseEvaluation(ctx, d.AlertID, d.Now, d.Previous)
	if err != nil {
		return err
	}
	if !ok {
		g.logger.WarnContext(ctx, "cooldown release skipped, anchor moved", "alert_id", d.AlertID)
	}
	return nil
}
