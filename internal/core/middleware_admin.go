package core

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"surfalert/internal/types"
)

// AdminKeyMiddleware admits requests whose bearer token matches the bcrypt
// hash. An empty hash rejects everything.
func AdminKeyMiddleware(hash string) func(http.Handler) http.Handler {
	hashed := []byte(hash)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "admin key required", nil))
				return
			}
			if len(hashed) == 0 || bcrypt.CompareHashAndPassword(hashed, []byte(token)) != nil {
				Error(w, r, types.NewAppError(types.ErrCodeAuthTokenInvalid, "invalid admin key", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
