package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrSchemaMissing means the collection does not exist on the remote
	// side. Listing treats it as an empty collection.
	ErrSchemaMissing = errors.New("collection does not exist")
	// ErrNotFound means the addressed row does not exist for the caller.
	ErrNotFound = errors.New("row not found")
	// ErrUnauthorized means the session token was missing or rejected.
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is a non-2xx reply from the remote store.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("http %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// TransientError wraps a failure that may succeed if the call is repeated:
// network errors, timeouts, throttling and server-side 5xx replies.
type TransientError struct {
	Op  Op
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
