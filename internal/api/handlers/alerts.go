// Package handlers maps HTTP requests onto the alert service.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"surfalert/internal/alerts"
	"surfalert/internal/core"
	"surfalert/internal/types"
)

// AlertService is the part of alerts.Service the handler uses.
type AlertService interface {
	QuickCheck(ctx context.Context, alertID string) (*alerts.QuickCheckResult, error)
	ForecastDetails(ctx context.Context, alertID string) (*alerts.ForecastDetails, error)
	BookingLinks(ctx context.Context, alertID, subID string) (*types.BookingLinks, error)
	Trigger(ctx context.Context, alertID string, reason types.TriggerReason) (*alerts.TriggerOutcome, error)
}

// AlertHandler serves the per-alert endpoints.
type AlertHandler struct {
	service   AlertService
	validator *core.Validator
	logger    *slog.Logger
}

// NewAlertHandler creates an AlertHandler.
func NewAlertHandler(svc AlertService, val *core.Validator, logger *slog.Logger) *AlertHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if val == nil {
		val = core.NewValidator()
	}
	return &AlertHandler{service: svc, validator: val, logger: logger}
}

// RegisterRoutes mounts the alert endpoints under /alerts.
func (h *AlertHandler) RegisterRoutes(r chi.Router) {
	r.Route("/alerts/{id}", func(r chi.Router) {
		r.Post("/quick-check", h.HandleQuickCheck)
		r.Get("/forecast", h.HandleForecast)
		r.Get("/booking-links", h.HandleBookingLinks)
		r.Post("/trigger", h.HandleTrigger)
	})
}

func alertID(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		return "", types.NewAppError(types.ErrCodeValidationMissingField, "alert id is required", nil)
	}
	return id, nil
}

// HandleQuickCheck handles POST /v1/alerts/{id}/quick-check.
func (h *AlertHandler) HandleQuickCheck(w http.ResponseWriter, r *http.Request) {
	id, err := alertID(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	res, err := h.service.QuickCheck(r.Context(), id)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, res)
}

// HandleForecast handles GET /v1/alerts/{id}/forecast.
func (h *AlertHandler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	id, err := alertID(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	res, err := h.service.ForecastDetails(r.Context(), id)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, res)
}

// HandleBookingLinks handles GET /v1/alerts/{id}/booking-links?sub_id=.
func (h *AlertHandler) HandleBookingLinks(w http.ResponseWriter, r *http.Request) {
	id, err := alertID(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	links, err := h.service.BookingLinks(r.Context(), id, r.URL.Query().Get("sub_id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, links)
}

// TriggerRequest is the body of POST /v1/alerts/{id}/trigger.
type TriggerRequest struct {
	Reason string `json:"reason" validate:"required,trigger_reason"`
}

// TriggerResponse is returned with 202 Accepted.
type TriggerResponse struct {
	JobID         string `json:"job_id"`
	EstimatedTime string `json:"estimated_time"`
}

// HandleTrigger handles POST /v1/alerts/{id}/trigger. A cooling alert is
// answered with 429, a Retry-After header in seconds and the cooldown end in
// the error details.
func (h *AlertHandler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	id, err := alertID(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	var req TriggerRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	out, err := h.service.Trigger(r.Context(), id, types.TriggerReason(req.Reason))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if !out.Triggered {
		d := out.Decision
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(d.RetryAfter())))
		core.Error(w, r, types.NewAppErrorWithDetails(types.ErrCodeCooldownActive,
			fmt.Sprintf("alert was checked recently, try again in %d minutes", d.RemainingMinutes), nil,
			map[string]any{
				"cooldown_until":    d.CooldownUntil.UTC().Format(time.RFC3339),
				"remaining_minutes": d.RemainingMinutes,
				"reason":            d.Reason,
			}))
		return
	}

	core.JSON(w, r, http.StatusAccepted, TriggerResponse{
		JobID:         out.JobID,
		EstimatedTime: formatETA(out.EstimatedTime),
	})
}

func retryAfterSeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}

func formatETA(d time.Duration) string {
	if d <= 0 {
		return "a few minutes"
	}
	if m := int(math.Round(d.Minutes())); m > 1 {
		return fmt.Sprintf("%d minutes", m)
	}
	return "about a minute"
}
