package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surfalert/internal/types"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var body APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusAccepted, map[string]int{"n": 1})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}

func TestJSONMarshalFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, map[string]any{"ch": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(types.ErrCodeInternalUnexpected), decodeError(t, rec).Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   types.ErrorCode
	}{
		{"not found", types.NewAppError(types.ErrCodeNotFoundAlert, "alert not found", nil), http.StatusNotFound, types.ErrCodeNotFoundAlert},
		{"cooldown", types.NewAppError(types.ErrCodeCooldownActive, "cooling", nil), http.StatusTooManyRequests, types.ErrCodeCooldownActive},
		{"paused", types.NewAppError(types.ErrCodeConflictAlertPaused, "paused", nil), http.StatusConflict, types.ErrCodeConflictAlertPaused},
		{"dispatch", types.NewAppError(types.ErrCodeUpstreamWorkerDispatch, "queue down", nil), http.StatusBadGateway, types.ErrCodeUpstreamWorkerDispatch},
		{"wrapped", fmt.Errorf("svc: %w", types.NewAppError(types.ErrCodeValidationBody, "bad", nil)), http.StatusBadRequest, types.ErrCodeValidationBody},
		{"generic", errors.New("pq: connection refused"), http.StatusInternalServerError, types.ErrCodeInternalUnexpected},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(types.WithRequestID(req.Context(), "req-1"))
			rec := httptest.NewRecorder()
			Error(rec, req, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			detail := decodeError(t, rec)
			assert.Equal(t, string(tc.code), detail.Code)
			assert.Equal(t, "req-1", detail.RequestID)
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}

func TestErrorIncludesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := types.NewAppErrorWithDetails(types.ErrCodeCooldownActive, "cooling", nil, map[string]any{"remaining_minutes": 42})
	Error(rec, httptest.NewRequest(http.MethodPost, "/", nil), err)

	assert.Equal(t, float64(42), decodeError(t, rec).Details["remaining_minutes"])
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Reason string `json:"reason"`
	}
	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{"valid", `{"reason":"scheduled"}`, ""},
		{"unknown field", `{"reason":"scheduled","extra":1}`, "unknown field"},
		{"syntax", `{"reason":`, "JSON"},
		{"empty", ``, "must not be empty"},
		{"type mismatch", `{"reason":5}`, "invalid value"},
		{"two values", `{"reason":"a"}{"reason":"b"}`, "single JSON object"},
		{"too large", `{"reason":"` + strings.Repeat("x", maxRequestBodySize) + `"}`, "too large"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.payload))
			var dst body
			err := DecodeJSON(httptest.NewRecorder(), req, &dst)
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "scheduled", dst.Reason)
				return
			}
			var appErr *types.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, types.ErrCodeValidationBody, appErr.Code)
			assert.Contains(t, appErr.Message, tc.wantErr)
		})
	}
}
