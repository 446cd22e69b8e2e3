// Package middleware provides HTTP middleware for the mototaxi dispatch API.
package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/alvahercar220901-design/mototaxi-backend/internal/auth"
)

// NewAuthenticator returns a middleware that resolves the Authorization
// header into an auth.Identity and places it in the request context.
// Requests without a valid token are rejected with 401 before reaching any
// handler. Handlers read the identity with auth.FromContext.
func NewAuthenticator(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "authorization header required")
				return
			}

			id, err := verifier.Parse(header)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole returns a middleware that rejects authenticated requests whose
// identity lacks the named role. Wire it after NewAuthenticator on routes
// restricted to one side of the marketplace (passenger-only, driver-only).
//
// Role checks only gate entry to an operation; identity checks inside the
// engine still apply, so holding the right role never grants a transition
// recorded for a different actor.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.FromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "authorization required")
				return
			}
			if !id.HasRole(role) {
				writeAuthError(w, http.StatusForbidden, "forbidden", "requires role "+role)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeAuthError writes the same error envelope the handlers use, without
// importing the handler package.
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
