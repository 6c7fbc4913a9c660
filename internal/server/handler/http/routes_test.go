package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/teamsync/internal/middleware"
	"github.com/atinyakov/teamsync/internal/remote"
	"github.com/atinyakov/teamsync/internal/service"
)

// memRows is an in-memory service.RowRepository.
type memRows[R remote.Row[R]] struct {
	mu   sync.Mutex
	rows map[string][]R
}

func (m *memRows[R]) List(_ context.Context, userID string) ([]R, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]R(nil), m.rows[userID]...), nil
}

func (m *memRows[R]) Get(_ context.Context, userID, id string) (R, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows[userID] {
		if r.RowID() == id {
			return r, nil
		}
	}
	var zero R
	return zero, remote.ErrNotFound
}

func (m *memRows[R]) Insert(_ context.Context, userID string, row R) (R, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		m.rows = map[string][]R{}
	}
	m.rows[userID] = append(m.rows[userID], row)
	return row, nil
}

func (m *memRows[R]) Update(_ context.Context, userID, id string, row R, updatedAt time.Time) (R, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows[userID] {
		if r.RowID() == id {
			row = row.Assign(id, userID, r.Created(), updatedAt)
			m.rows[userID][i] = row
			return row, nil
		}
	}
	var zero R
	return zero, remote.ErrNotFound
}

func (m *memRows[R]) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows[userID] {
		if r.RowID() == id {
			m.rows[userID] = append(m.rows[userID][:i], m.rows[userID][i+1:]...)
			return nil
		}
	}
	return remote.ErrNotFound
}

type memSessions struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (s *memSessions) IssueSession(_ context.Context, login string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if login == "broken" {
		return "", errors.New("db down")
	}
	token := login + "-token"
	if _, taken := s.tokens[token]; taken {
		return "", service.ErrUserExists
	}
	s.tokens[token] = login
	return token, nil
}

func (s *memSessions) UserExists(_ context.Context, login string) (bool, error) {
	return login != "", nil
}

func (s *memSessions) ResolveSession(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if login, ok := s.tokens[token]; ok {
		return login, nil
	}
	return "", errors.New("session not found")
}

func newTestServer(t *testing.T, limiter *middleware.RateLimiter) *httptest.Server {
	t.Helper()
	sessions := &memSessions{tokens: map[string]string{}}
	board := service.NewBoard(
		&memRows[remote.TaskRow]{},
		&memRows[remote.ContactRow]{},
		&memRows[remote.MemberRow]{},
		&memRows[remote.MessageRow]{},
	)
	reg := prometheus.NewRegistry()
	router := NewRouter(RouterDeps{
		Auth:     &AuthHandler{AuthService: sessions},
		Board:    NewBoardHandler(board.Tasks, board.Contacts, board.Members, board.Messages),
		Sessions: sessions,
		Limiter:  limiter,
		Metrics:  middleware.NewMetrics(reg),
		Gatherer: reg,
		Logger:   zap.NewNop(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestRouter_RoundTripThroughHTTPStore(t *testing.T) {
	srv := newTestServer(t, nil)
	ctx := context.Background()

	token, err := remote.Register(ctx, srv.Client(), srv.URL, "alice")
	require.NoError(t, err)
	store := remote.NewHTTPStore(srv.URL, token, srv.Client())

	created, err := store.Tasks().Insert(ctx, remote.TaskRow{ID: "", Title: "Write docs"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "todo", created.Status)
	assert.Equal(t, "alice", created.UserID)

	created.Status = "doing"
	updated, err := store.Tasks().Update(ctx, created.ID, created)
	require.NoError(t, err)
	assert.Equal(t, "doing", updated.Status)

	rows, err := store.Tasks().List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, store.Tasks().Delete(ctx, created.ID))
	err = store.Tasks().Delete(ctx, created.ID)
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestRouter_RegisterTakenLogin(t *testing.T) {
	srv := newTestServer(t, nil)
	ctx := context.Background()

	token, err := remote.Register(ctx, srv.Client(), srv.URL, "alice")
	require.NoError(t, err)

	_, err = remote.Register(ctx, srv.Client(), srv.URL, "alice")
	var statusErr *remote.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusConflict, statusErr.StatusCode)
	assert.Equal(t, "conflict", statusErr.Code)

	rows, err := remote.NewHTTPStore(srv.URL, token, srv.Client()).Tasks().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRouter_ValidationIsPermanent(t *testing.T) {
	srv := newTestServer(t, nil)
	ctx := context.Background()
	token, err := remote.Register(ctx, srv.Client(), srv.URL, "alice")
	require.NoError(t, err)
	store := remote.NewHTTPStore(srv.URL, token, srv.Client())

	_, err = store.Contacts().Insert(ctx, remote.ContactRow{Name: "Ann", Status: "Friend"})
	require.Error(t, err)
	assert.False(t, remote.IsTransient(err))

	var statusErr *remote.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "invalid", statusErr.Code)
}

func TestRouter_UnknownCollection(t *testing.T) {
	srv := newTestServer(t, nil)
	ctx := context.Background()
	token, err := remote.Register(ctx, srv.Client(), srv.URL, "alice")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/invoices", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "schema_missing", body.Code)
}

func TestRouter_RequiresSession(t *testing.T) {
	srv := newTestServer(t, nil)
	store := remote.NewHTTPStore(srv.URL, "forged", srv.Client())

	_, err := store.Members().List(context.Background())
	assert.ErrorIs(t, err, remote.ErrUnauthorized)
}

func TestRouter_RateLimitIsTransient(t *testing.T) {
	srv := newTestServer(t, middleware.NewRateLimiter(0.001, 1, 0))
	ctx := context.Background()
	token, err := remote.Register(ctx, srv.Client(), srv.URL, "alice")
	require.NoError(t, err)
	store := remote.NewHTTPStore(srv.URL, token, srv.Client())

	_, err = store.Messages().List(ctx)
	require.NoError(t, err)
	_, err = store.Messages().List(ctx)
	require.Error(t, err)
	assert.True(t, remote.IsTransient(err))
}

func TestRouter_Metrics(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
