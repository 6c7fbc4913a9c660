// Package models defines the records kept in the team workspace: tasks,
// contacts, team members and chat messages, together with the identity,
// validation and patch rules shared by every synchronized collection.
package models

import "time"

// Kind names a synchronized collection.
type Kind string

const (
	// KindTasks is the task board collection.
	KindTasks Kind = "tasks"
	// KindContacts is the contacts/CRM collection.
	KindContacts Kind = "contacts"
	// KindMembers is the team roster collection.
	KindMembers Kind = "members"
	// KindMessages is the team chat collection.
	KindMessages Kind = "messages"
)

// Kinds lists every collection kind in bootstrap order.
var Kinds = []Kind{KindTasks, KindContacts, KindMembers, KindMessages}

// Singular returns the human name of one record of the kind ("task", "contact", ...).
func (k Kind) Singular() string {
	switch k {
	case KindTasks:
		return "task"
	case KindContacts:
		return "contact"
	case KindMembers:
		return "team member"
	case KindMessages:
		return "message"
	default:
		return string(k)
	}
}

// Valid reports whether k is one of the known collection kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindTasks, KindContacts, KindMembers, KindMessages:
		return true
	}
	return false
}

// Entity is implemented by every record kind kept in a synchronized
// collection. E is the concrete record type itself, so methods that derive
// a new record return a value of the same type.
type Entity[E any] interface {
	// Key returns the record id (server or placeholder).
	Key() string
	// WithKey returns a copy of the record carrying id.
	WithKey(id string) E
	// Validate checks the required fields of a draft or an updated record.
	Validate() error
	// Prepare fills defaults for a freshly created record.
	Prepare(id string, now time.Time) E
	// Touch stamps the record as modified at now.
	Touch(now time.Time) E
}

// Patch merges a partial change into a record.
type Patch[E any] interface {
	Apply(E) E
}

// Tombstoner is implemented by kinds whose deletion keeps the record and
// clears its content instead of removing it. A tombstone takes no edits.
type Tombstoner[E any] interface {
	Tombstone() E
	IsTombstone() bool
}

// Annotatable is implemented by kinds that embed an append-only list of
// entries (task comments, contact notes).
type Annotatable[E any] interface {
	AppendEntry(e Entry) E
}

// User represents a registered caller of the remote store.
type User struct {
	// Login is the unique name of the user; it scopes every collection.
	Login string
}
