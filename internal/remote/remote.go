// Package remote describes the hosted store that owns every collection of
// the workspace: the snake_case row shapes it speaks, the CRUD+list contract
// each collection exposes, and the errors it fails with. It also provides
// two implementations of that contract: an HTTP client and an in-memory
// store.
package remote

import (
	"context"
	"time"

	"github.com/atinyakov/teamsync/internal/models"
)

// Collection is the remote side of one entity kind. Every call is scoped to
// the caller identity the store was opened with.
type Collection[R any] interface {
	// List returns every row owned by the caller, oldest first.
	List(ctx context.Context) ([]R, error)
	// Insert stores a new row and returns it with server id and timestamps.
	Insert(ctx context.Context, row R) (R, error)
	// Update replaces the row with the given id and returns the stored row.
	Update(ctx context.Context, id string, row R) (R, error)
	// Delete removes the row with the given id.
	Delete(ctx context.Context, id string) error
}

// Store groups the four collections of a workspace.
type Store interface {
	Tasks() Collection[TaskRow]
	Contacts() Collection[ContactRow]
	Members() Collection[MemberRow]
	Messages() Collection[MessageRow]
}

// Row is implemented by every row type. Assign returns a copy of the row
// carrying the server-controlled columns.
type Row[R any] interface {
	RowID() string
	Assign(id, owner string, created, updated time.Time) R
	Created() time.Time
}

// Op names a collection operation.
type Op string

const (
	OpList   Op = "list"
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// CollectionName returns the resource path segment used for a kind.
func CollectionName(k models.Kind) string {
	return string(k)
}
