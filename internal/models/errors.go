package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an operation names a record id that is not
// present in its collection.
var ErrNotFound = errors.New("record not found")

// ErrTombstoned is returned for an edit of a deleted chat message.
var ErrTombstoned error = &ValidationError{Field: "content", Reason: "message is deleted"}

// ValidationError reports a missing or malformed required field. It is
// raised before any state change or network call.
type ValidationError struct {
	// Field is the offending field name.
	Field string
	// Reason describes what is wrong with it.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func required(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "must not be empty"}
}
