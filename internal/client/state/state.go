// Package state is the optimistic synchronization core of the client. It
// keeps the caller's collections, applies user intents to them at once and
// describes, as effects, the remote calls that must follow. Reduce is pure:
// running the effects and feeding their outcome back as reconciliation
// actions is the job of the coordinator in package storage.
package state

import (
	"maps"
	"slices"
	"time"

	"github.com/atinyakov/teamsync/internal/models"
)

// MaxErrors bounds the error log; older entries are evicted first.
const MaxErrors = 10

// ErrorEntry is one line of the error log.
type ErrorEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Collections carries one full set of records, as loaded at bootstrap.
type Collections struct {
	Tasks    []models.Task
	Contacts []models.Contact
	Members  []models.TeamMember
	Messages []models.ChatMessage
}

// State is a snapshot of the workspace as the client sees it. A State is
// never modified in place: every transition builds new slices and maps, so
// a snapshot handed out earlier stays valid.
type State struct {
	Tasks    []models.Task
	Contacts []models.Contact
	Members  []models.TeamMember
	Messages []models.ChatMessage

	// TypingUsers lists who is typing in the chat; local only.
	TypingUsers []string

	// Loading is set while the bootstrap is running.
	Loading bool
	// LoadError holds the terminal bootstrap failure, if any.
	LoadError string
	// Error is the most recent operation error.
	Error string
	// Errors is the bounded error log, oldest first.
	Errors []ErrorEntry
	// LastSync is when the remote store last confirmed a change or a load.
	LastSync time.Time

	// pending tracks creates still in flight, keyed by placeholder id.
	pending map[string]pendingCreate
	// inflight counts unconfirmed updates per server id.
	inflight map[string]int
	// base holds, per id with calls in flight, the last record the remote
	// store is known to hold. A failure of the last call restores it.
	base map[string]any
}

type pendingCreate struct {
	// dirty: the placeholder record changed after its create was sent.
	dirty bool
	// deleted: the placeholder record was deleted before confirmation.
	deleted bool
}

// New returns an empty state.
func New() State {
	return State{
		Tasks:    []models.Task{},
		Contacts: []models.Contact{},
		Members:  []models.TeamMember{},
		Messages: []models.ChatMessage{},
	}
}

// Pending reports whether a create is still in flight for placeholder id.
func (s State) Pending(id string) bool {
	_, ok := s.pending[id]
	return ok
}

// PendingCount returns the number of creates in flight.
func (s State) PendingCount() int {
	return len(s.pending)
}

// Find returns the record with the given id in coll.
func Find[E models.Entity[E]](coll []E, id string) (E, bool) {
	i := indexOf(coll, id)
	if i < 0 {
		var zero E
		return zero, false
	}
	return coll[i], true
}

func (s State) withError(now time.Time, msg string) State {
	errs := make([]ErrorEntry, 0, MaxErrors)
	errs = append(errs, s.Errors...)
	errs = append(errs, ErrorEntry{Time: now, Message: msg})
	if len(errs) > MaxErrors {
		errs = slices.Clone(errs[len(errs)-MaxErrors:])
	}
	s.Errors = errs
	s.Error = msg
	return s
}

func (s State) withPending(id string, p pendingCreate) State {
	m := maps.Clone(s.pending)
	if m == nil {
		m = make(map[string]pendingCreate)
	}
	m[id] = p
	s.pending = m
	return s
}

func (s State) withoutPending(id string) State {
	if _, ok := s.pending[id]; !ok {
		return s
	}
	m := maps.Clone(s.pending)
	delete(m, id)
	s.pending = m
	return s
}

// withInflight adjusts the number of calls in flight for id. The base
// record of id is dropped once none is left.
func (s State) withInflight(id string, delta int) State {
	m := maps.Clone(s.inflight)
	if m == nil {
		m = make(map[string]int)
	}
	n := m[id] + delta
	if n <= 0 {
		delete(m, id)
		if _, ok := s.base[id]; ok {
			b := maps.Clone(s.base)
			delete(b, id)
			s.base = b
		}
	} else {
		m[id] = n
	}
	s.inflight = m
	return s
}

func (s State) withBase(id string, rec any) State {
	b := maps.Clone(s.base)
	if b == nil {
		b = make(map[string]any)
	}
	b[id] = rec
	s.base = b
	return s
}

// baseOf returns the base record of id, or fallback when none is tracked.
func baseOf[E any](s State, id string, fallback E) E {
	if rec, ok := s.base[id].(E); ok {
		return rec
	}
	return fallback
}
