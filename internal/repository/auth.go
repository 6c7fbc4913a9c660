// Package repository provides the PostgreSQL persistence behind the
// workspace API: users and their session tokens, and one table per
// collection, every row scoped to its owner.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a token does not resolve to a user.
var ErrSessionNotFound = errors.New("session not found")

// PostgresAuthRepository implements user and session persistence.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the given database connection.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// UserExists checks whether a user with the specified login exists in the database.
func (s *PostgresAuthRepository) UserExists(ctx context.Context, login string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE login = $1)`,
		login,
	).Scan(&exists)
	return exists, err
}

// RegisterUser stores a new user and reports whether it was created.
// An existing login is left untouched and reported as not created.
func (s *PostgresAuthRepository) RegisterUser(ctx context.Context, login string) (bool, error) {
	res, err := s.DB.ExecContext(
		ctx,
		`INSERT INTO users (login) VALUES ($1) ON CONFLICT DO NOTHING`,
		login,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("register user: %w", err)
	}
	return n == 1, nil
}

// CreateSession stores token as a session of login.
func (s *PostgresAuthRepository) CreateSession(ctx context.Context, login, token string) error {
	_, err := s.DB.ExecContext(
		ctx,
		`INSERT INTO sessions (token, user_login) VALUES ($1, $2)`,
		token, login,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// ResolveSession returns the login owning token.
func (s *PostgresAuthRepository) ResolveSession(ctx context.Context, token string) (string, error) {
	var login string
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT user_login FROM sessions WHERE token = $1`,
		token,
	).Scan(&login)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve session: %w", err)
	}
	return login, nil
}
