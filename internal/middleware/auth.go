package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/shelfscape/backend/internal/api"
	"github.com/shelfscape/backend/internal/token"
)

type contextKey int

const (
	userIDKey contextKey = iota
	claimsKey
)

// RequireAuth validates the bearer token and injects the resolved user
// identity into the request context before handler dispatch. Every
// failure mode yields a 401 before any handler logic runs.
func RequireAuth(tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.Error(w, http.StatusUnauthorized, "Token is missing")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				api.Error(w, http.StatusUnauthorized, "Bearer token malformed")
				return
			}

			claims, err := tokens.Verify(r.Context(), parts[1])
			if err != nil {
				switch {
				case errors.Is(err, token.ErrExpired):
					api.Error(w, http.StatusUnauthorized, "Token has expired")
				case errors.Is(err, token.ErrRevoked):
					api.Error(w, http.StatusUnauthorized, "Token has been revoked")
				default:
					api.Error(w, http.StatusUnauthorized, "Token is invalid")
				}
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				api.Error(w, http.StatusUnauthorized, "Token is invalid")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID, claims)))
		})
	}
}

// WithUser injects an authenticated identity into the context. Tests
// use it to stand in for RequireAuth.
func WithUser(ctx context.Context, userID int64, claims *token.Claims) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, claimsKey, claims)
}

// UserID returns the authenticated user id, if any.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// TokenClaims returns the verified claims of the presented token.
func TokenClaims(ctx context.Context) *token.Claims {
	claims, _ := ctx.Value(claimsKey).(*token.Claims)
	return claims
}
