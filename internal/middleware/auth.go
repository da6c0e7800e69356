package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/alicelovescake/cashapp/internal/auth"
)

type contextKey string

const usernameKey contextKey = "username"

// Auth returns middleware that requires a valid, non-revoked Bearer
// access token and stores its username in the request context.
func Auth(tokens *auth.TokenManager, blacklist auth.Blacklist) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header {
				http.Error(w, `{"error":"invalid authorization format"}`, http.StatusUnauthorized)
				return
			}

			if revoked, err := blacklist.Revoked(r.Context(), token); err == nil && revoked {
				http.Error(w, `{"error":"token has been revoked"}`, http.StatusUnauthorized)
				return
			}

			username, err := tokens.ValidateAccess(token)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Username extracts the authenticated username from the context.
func Username(ctx context.Context) string {
	if v, ok := ctx.Value(usernameKey).(string); ok {
		return v
	}
	return ""
}
