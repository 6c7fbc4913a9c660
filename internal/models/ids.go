package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlaceholderPrefix marks ids generated locally for records that the remote
// store has not confirmed yet. Server ids never carry it.
const PlaceholderPrefix = "tmp-"

// NewPlaceholderID returns a fresh placeholder id.
func NewPlaceholderID() string {
	return PlaceholderPrefix + uuid.NewString()
}

// IsPlaceholder reports whether id was generated locally.
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, PlaceholderPrefix)
}

// NewEntryID returns an id for a comment or note: the creation time in
// milliseconds followed by a random suffix, so two entries created in the
// same millisecond still differ.
func NewEntryID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}
