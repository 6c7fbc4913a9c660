package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atinyakov/teamsync/internal/models"
)

const apiPrefix = "/api"

// HTTPStore talks to the workspace backend over its JSON API. The session
// token identifies the caller; every collection is scoped by it.
//
// HTTPStore makes exactly one attempt per call and classifies the failure;
// retrying is left to the caller.
type HTTPStore struct {
	baseURL    string
	token      string
	httpClient *http.Client

	tasks    *httpCollection[TaskRow]
	contacts *httpCollection[ContactRow]
	members  *httpCollection[MemberRow]
	messages *httpCollection[MessageRow]
}

// NewHTTPStore returns a store for baseURL authenticated by token. A nil
// httpClient is replaced by one with a 15 second timeout.
func NewHTTPStore(baseURL, token string, httpClient *http.Client) *HTTPStore {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	s := &HTTPStore{
		baseURL:    baseURL,
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
	}
	s.tasks = &httpCollection[TaskRow]{store: s, name: CollectionName(models.KindTasks)}
	s.contacts = &httpCollection[ContactRow]{store: s, name: CollectionName(models.KindContacts)}
	s.members = &httpCollection[MemberRow]{store: s, name: CollectionName(models.KindMembers)}
	s.messages = &httpCollection[MessageRow]{store: s, name: CollectionName(models.KindMessages)}
	return s
}

func (s *HTTPStore) Tasks() Collection[TaskRow]       { return s.tasks }
func (s *HTTPStore) Contacts() Collection[ContactRow] { return s.contacts }
func (s *HTTPStore) Members() Collection[MemberRow]   { return s.members }
func (s *HTTPStore) Messages() Collection[MessageRow] { return s.messages }

// Register creates a user on the backend and returns its session token.
func Register(ctx context.Context, httpClient *http.Client, baseURL, login string) (string, error) {
	s := NewHTTPStore(baseURL, "", httpClient)
	var out struct {
		Token string `json:"token"`
	}
	if err := s.doJSON(ctx, OpInsert, http.MethodPost, apiPrefix+"/register", map[string]string{"login": login}, &out); err != nil {
		return "", fmt.Errorf("register failed: %w", err)
	}
	if out.Token == "" {
		return "", errors.New("register failed: empty token in response")
	}
	return out.Token, nil
}

type httpCollection[R any] struct {
	store *HTTPStore
	name  string
}

func (c *httpCollection[R]) path(id string) string {
	p := apiPrefix + "/" + c.name
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

func (c *httpCollection[R]) List(ctx context.Context) ([]R, error) {
	out := []R{}
	if err := c.store.doJSON(ctx, OpList, http.MethodGet, c.path(""), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpCollection[R]) Insert(ctx context.Context, row R) (R, error) {
	var out R
	err := c.store.doJSON(ctx, OpInsert, http.MethodPost, c.path(""), row, &out)
	return out, err
}

func (c *httpCollection[R]) Update(ctx context.Context, id string, row R) (R, error) {
	var out R
	err := c.store.doJSON(ctx, OpUpdate, http.MethodPut, c.path(id), row, &out)
	return out, err
}

func (c *httpCollection[R]) Delete(ctx context.Context, id string) error {
	return c.store.doJSON(ctx, OpDelete, http.MethodDelete, c.path(id), nil, nil)
}

func (s *HTTPStore) doJSON(ctx context.Context, op Op, method, requestPath string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+requestPath, bodyReader)
	if err != nil {
		return err
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	req.Header.Set("X-Correlation-Id", correlationID())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransientError{Op: op, Err: err}
	}
	payload, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return &TransientError{Op: op, Err: readErr}
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		if out == nil || len(payload) == 0 {
			return nil
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("invalid response: %w", err)
		}
		return nil
	}

	var errPayload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(payload, &errPayload)
	if errPayload.Message == "" {
		errPayload.Message = strings.TrimSpace(string(payload))
	}
	statusErr := &StatusError{StatusCode: resp.StatusCode, Code: errPayload.Code, Message: errPayload.Message}

	switch {
	case resp.StatusCode == http.StatusNotFound && errPayload.Code == "schema_missing":
		return fmt.Errorf("%s %s: %w", method, requestPath, ErrSchemaMissing)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, requestPath, ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s %s: %w", method, requestPath, ErrUnauthorized)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &TransientError{Op: op, Err: statusErr}
	default:
		return statusErr
	}
}

func correlationID() string {
	return fmt.Sprintf("teamsync_%d", time.Now().UnixNano())
}
