package state

import (
	"slices"

	"github.com/atinyakov/teamsync/internal/models"
)

// lens gives the reducer uniform access to one collection of a State.
type lens[E models.Entity[E]] struct {
	kind models.Kind
	get  func(State) []E
	set  func(*State, []E)
	// head: new records go first (most recent first); otherwise last.
	head bool
}

var (
	taskLens = lens[models.Task]{
		kind: models.KindTasks,
		get:  func(s State) []models.Task { return s.Tasks },
		set:  func(s *State, v []models.Task) { s.Tasks = v },
		head: true,
	}
	contactLens = lens[models.Contact]{
		kind: models.KindContacts,
		get:  func(s State) []models.Contact { return s.Contacts },
		set:  func(s *State, v []models.Contact) { s.Contacts = v },
		head: true,
	}
	memberLens = lens[models.TeamMember]{
		kind: models.KindMembers,
		get:  func(s State) []models.TeamMember { return s.Members },
		set:  func(s *State, v []models.TeamMember) { s.Members = v },
		head: true,
	}
	messageLens = lens[models.ChatMessage]{
		kind: models.KindMessages,
		get:  func(s State) []models.ChatMessage { return s.Messages },
		set:  func(s *State, v []models.ChatMessage) { s.Messages = v },
	}
)

// position resolves where a record is (re)inserted: a valid index is
// clamped to the collection, a negative one falls back to kind ordering.
func (l lens[E]) position(coll []E, index int) int {
	if index < 0 {
		if l.head {
			return 0
		}
		return len(coll)
	}
	return min(index, len(coll))
}

func indexOf[E models.Entity[E]](coll []E, id string) int {
	return slices.IndexFunc(coll, func(e E) bool { return e.Key() == id })
}

func insertAt[E any](coll []E, i int, e E) []E {
	out := make([]E, 0, len(coll)+1)
	out = append(out, coll[:i]...)
	out = append(out, e)
	return append(out, coll[i:]...)
}

func replaceAt[E any](coll []E, i int, e E) []E {
	out := slices.Clone(coll)
	out[i] = e
	return out
}

func removeAt[E any](coll []E, i int) []E {
	out := make([]E, 0, len(coll)-1)
	out = append(out, coll[:i]...)
	return append(out, coll[i+1:]...)
}
