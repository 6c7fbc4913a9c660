// Package http provides the HTTP handlers and routing of the workspace
// API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/teamsync/internal/middleware"
	"github.com/atinyakov/teamsync/internal/service"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// IssueSession registers a new login and returns its session token.
	IssueSession(ctx context.Context, login string) (string, error)
	// UserExists checks whether a user with the given login exists.
	UserExists(ctx context.Context, login string) (bool, error)
}

// AuthHandler handles HTTP requests for registration and session lookup.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	Logger      *zap.Logger
}

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	// Login is the username to register.
	Login string `json:"login"`
}

// RegisterResponse carries the session token of a registered user.
type RegisterResponse struct {
	Login string `json:"login"`
	Token string `json:"token"`
}

// Register handles POST /api/register.
// It expects a JSON body with a non-empty "login" field and returns the
// session token of the new user. A taken login is answered with 409.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Login == "" {
		writeError(w, http.StatusBadRequest, "invalid", "invalid request")
		return
	}

	token, err := h.AuthService.IssueSession(r.Context(), req.Login)
	if errors.Is(err, service.ErrInvalidLogin) {
		writeError(w, http.StatusBadRequest, "invalid", err.Error())
		return
	}
	if errors.Is(err, service.ErrUserExists) {
		writeError(w, http.StatusConflict, "conflict", "user already exists")
		return
	}
	if err != nil {
		h.logger().Error("failed to issue session", zap.String("login", req.Login), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "failed to register")
		return
	}

	writeJSON(w, http.StatusOK, RegisterResponse{Login: req.Login, Token: token})
}

// Me handles GET /api/me and reports the login owning the session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	login := middleware.GetUserIDFromContext(r.Context())

	exists, err := h.AuthService.UserExists(r.Context(), login)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	if !exists {
		writeError(w, http.StatusForbidden, "forbidden", "user not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "user": login})
}

func (h *AuthHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
