package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"surfalert/internal/types"
)

type mockCooldownResetter struct {
	ResetFunc func(ctx context.Context) (int64, error)
}

func (m *mockCooldownResetter) ResetCooldowns(ctx context.Context) (int64, error) {
	return m.ResetFunc(ctx)
}

func adminRouter(svc CooldownResetter) http.Handler {
	r := chi.NewRouter()
	r.Route("/v1/admin", NewAdminHandler(svc, testLogger()).RegisterRoutes)
	return r
}

func TestHandleResetCooldowns(t *testing.T) {
	svc := &mockCooldownResetter{ResetFunc: func(context.Context) (int64, error) { return 12, nil }}

	rec := do(t, adminRouter(svc), http.MethodPost, "/v1/admin/cooldowns/reset", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated_count":12}`, rec.Body.String())
}

func TestHandleResetCooldownsError(t *testing.T) {
	svc := &mockCooldownResetter{ResetFunc: func(context.Context) (int64, error) {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to reset cooldowns", errors.New("timeout"))
	}}

	rec := do(t, adminRouter(svc), http.MethodPost, "/v1/admin/cooldowns/reset", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(types.ErrCodeInternalDB), errorBody(t, rec).Code)
}
