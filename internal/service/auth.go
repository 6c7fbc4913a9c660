// Package service holds the business logic of the workspace API: user
// sessions and the per-collection record rules, delegating persistence to
// repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidLogin is returned when a session is requested for a blank login.
	ErrInvalidLogin = errors.New("login must not be empty")
	// ErrUserExists is returned when registering a login that is already taken.
	ErrUserExists = errors.New("user already exists")
)

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	// UserExists returns true if a user with the given login exists.
	// ctx carries deadlines, cancellation signals, and other request-scoped values.
	UserExists(ctx context.Context, login string) (bool, error)
	// RegisterUser creates a new user record with the given login and
	// reports false when the login was already taken.
	RegisterUser(ctx context.Context, login string) (bool, error)
	// CreateSession stores token as a session of login.
	CreateSession(ctx context.Context, login, token string) error
	// ResolveSession returns the login owning token.
	ResolveSession(ctx context.Context, token string) (string, error)
}

// Service implements authentication operations by delegating
// to an AuthRepository.
type Service struct {
	// repo performs the data-layer operations.
	repo AuthRepository
	// newToken generates session tokens.
	newToken func() string
}

// NewAuthService constructs a new Service using the provided repository.
// repo must implement AuthRepository.
func NewAuthService(repo AuthRepository) *Service {
	return &Service{repo: repo, newToken: uuid.NewString}
}

// UserExists checks whether a user with the specified login exists.
// It returns true if the user exists, false otherwise, along with any error.
func (s *Service) UserExists(ctx context.Context, login string) (bool, error) {
	return s.repo.UserExists(ctx, login)
}

// IssueSession registers login and returns the first session token for it.
// A login that is already registered yields ErrUserExists; its owner keeps
// using the token issued at registration.
func (s *Service) IssueSession(ctx context.Context, login string) (string, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return "", ErrInvalidLogin
	}
	created, err := s.repo.RegisterUser(ctx, login)
	if err != nil {
		return "", fmt.Errorf("register %s: %w", login, err)
	}
	if !created {
		return "", ErrUserExists
	}
	token := s.newToken()
	if err := s.repo.CreateSession(ctx, login, token); err != nil {
		return "", err
	}
	return token, nil
}

// ResolveSession returns the login a session token belongs to.
func (s *Service) ResolveSession(ctx context.Context, token string) (string, error) {
	return s.repo.ResolveSession(ctx, token)
}
