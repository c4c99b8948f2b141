package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"surfalert/internal/core"
)

// CooldownResetter clears alert cooldowns.
type CooldownResetter interface {
	ResetCooldowns(ctx context.Context) (int64, error)
}

// AdminHandler serves operator endpoints. Authentication is applied by the
// router group it is mounted on.
type AdminHandler struct {
	service CooldownResetter
	logger  *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(svc CooldownResetter, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{service: svc, logger: logger}
}

// RegisterRoutes mounts the admin endpoints.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Post("/cooldowns/reset", h.HandleResetCooldowns)
}

// HandleResetCooldowns handles POST /v1/admin/cooldowns/reset.
func (h *AdminHandler) HandleResetCooldowns(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.ResetCooldowns(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "admin reset cooldowns", "updated_count", n)
	core.JSON(w, r, http.StatusOK, map[string]int64{"updated_count": n})
}
