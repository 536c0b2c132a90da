package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/skytails/skytails/internal/auth"
	"github.com/skytails/skytails/internal/models"
)

// contextKey is an unexported type used for context keys in this package.
type contextKey string

// UserContextKey is the context key used to store the authenticated user.
const UserContextKey contextKey = "user"

// RequireAuth returns middleware that enforces authentication.
// It reads the "session_token" cookie, validates the session, and stores
// the user in the request context. If the session is invalid or missing,
// it responds with 401 and a JSON error body.
func RequireAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("session_token")
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			user, err := authService.ValidateSession(r.Context(), cookie.Value)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
}

// UserFromContext extracts the authenticated user from the context.
// Returns nil if no user is present.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserContextKey).(*models.User)
	return user
}
