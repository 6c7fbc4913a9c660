// Package middleware provides HTTP middlewares for authentication, logging,
// rate limiting and metrics.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type ctxKey string

const userKey ctxKey = "user"

// SessionResolver maps a session token to the login that owns it.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (string, error)
}

// publicPaths are served without a session.
var publicPaths = map[string]bool{
	"/api/register": true,
	"/metrics":      true,
}

// SessionAuth is a middleware that requires a bearer session token.
//
// The token is read from the Authorization header and resolved to a login,
// which is stored in the request context for downstream handlers. Requests
// to /api/register and /metrics pass through untouched.
func SessionAuth(sessions SessionResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing session token")
				return
			}
			login, err := sessions.ResolveSession(r.Context(), token)
			if err != nil {
				logger.Debug("session rejected", zap.String("path", r.URL.Path), zap.Error(err))
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid session token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), login)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(h, "Bearer ")
	token = strings.TrimSpace(token)
	return token, found && token != ""
}

// WithUser returns a copy of ctx carrying login as the authenticated user.
func WithUser(ctx context.Context, login string) context.Context {
	return context.WithValue(ctx, userKey, login)
}

// GetUserIDFromContext extracts the authenticated login from the request
// context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": code, "message": msg})
}
