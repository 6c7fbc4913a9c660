package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/teamsync/internal/models"
	"github.com/atinyakov/teamsync/internal/remote"
)

// RowRepository defines the persistence operations of one collection.
// Every call is scoped to the owning user.
type RowRepository[R any] interface {
	List(ctx context.Context, userID string) ([]R, error)
	Get(ctx context.Context, userID, id string) (R, error)
	Insert(ctx context.Context, userID string, row R) (R, error)
	Update(ctx context.Context, userID, id string, row R, updatedAt time.Time) (R, error)
	Delete(ctx context.Context, userID, id string) error
}

// Resource applies the server-side rules of one collection: it checks and
// normalizes incoming rows and assigns ids, owners and timestamps.
type Resource[R remote.Row[R]] struct {
	repo   RowRepository[R]
	check  func(R) (R, error)
	revise func(stored, incoming R, now time.Time) (R, error)
	now    func() time.Time
	newID  func() string
}

// NewResource builds a Resource over repo. check validates a row and fills
// its defaults.
func NewResource[R remote.Row[R]](repo RowRepository[R], check func(R) (R, error)) *Resource[R] {
	return &Resource[R]{repo: repo, check: check, now: time.Now, newID: uuid.NewString}
}

// WithRevision makes Update load the stored row and pass it, with the
// checked incoming row, through revise before writing.
func (s *Resource[R]) WithRevision(revise func(stored, incoming R, now time.Time) (R, error)) *Resource[R] {
	s.revise = revise
	return s
}

// List returns the rows owned by userID, oldest first.
func (s *Resource[R]) List(ctx context.Context, userID string) ([]R, error) {
	return s.repo.List(ctx, userID)
}

// Create stores row under a new server-assigned id.
func (s *Resource[R]) Create(ctx context.Context, userID string, row R) (R, error) {
	row, err := s.check(row)
	if err != nil {
		return row, err
	}
	now := s.now().UTC()
	return s.repo.Insert(ctx, userID, row.Assign(s.newID(), userID, now, now))
}

// Update overwrites the row id with row.
func (s *Resource[R]) Update(ctx context.Context, userID, id string, row R) (R, error) {
	row, err := s.check(row)
	if err != nil {
		return row, err
	}
	now := s.now().UTC()
	if s.revise != nil {
		stored, err := s.repo.Get(ctx, userID, id)
		if err != nil {
			return row, err
		}
		if row, err = s.revise(stored, row, now); err != nil {
			return row, err
		}
	}
	return s.repo.Update(ctx, userID, id, row, now)
}

// Delete removes the row id.
func (s *Resource[R]) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

// Board bundles the collections of a workspace.
type Board struct {
	Tasks    *Resource[remote.TaskRow]
	Contacts *Resource[remote.ContactRow]
	Members  *Resource[remote.MemberRow]
	Messages *Resource[remote.MessageRow]
}

// NewBoard wires the workspace collections to their repositories.
func NewBoard(
	tasks RowRepository[remote.TaskRow],
	contacts RowRepository[remote.ContactRow],
	members RowRepository[remote.MemberRow],
	messages RowRepository[remote.MessageRow],
) *Board {
	return &Board{
		Tasks:    NewResource(tasks, CheckTask),
		Contacts: NewResource(contacts, CheckContact),
		Members:  NewResource(members, CheckMember),
		Messages: NewResource(messages, CheckMessage).WithRevision(ReviseMessage),
	}
}

// CheckTask validates a task row and defaults its status to todo.
func CheckTask(r remote.TaskRow) (remote.TaskRow, error) {
	t := models.Task{Title: r.Title, Status: models.TaskStatus(r.Status)}
	if r.DueDate != nil {
		t.DueDate = *r.DueDate
	}
	if err := t.Validate(); err != nil {
		return r, err
	}
	r.Title = strings.TrimSpace(r.Title)
	if r.Status == "" {
		r.Status = string(models.TaskTodo)
	}
	if r.DueDate != nil && *r.DueDate == "" {
		r.DueDate = nil
	}
	if r.Comments == nil {
		r.Comments = []remote.EntryRow{}
	}
	return r, nil
}

// CheckContact validates a contact row and defaults its status to Lead.
// Email uniqueness is not enforced.
func CheckContact(r remote.ContactRow) (remote.ContactRow, error) {
	c := models.Contact{Name: r.Name, Email: r.Email, Status: models.ContactStatus(r.Status)}
	if err := c.Validate(); err != nil {
		return r, err
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Status == "" {
		r.Status = string(models.ContactLead)
	}
	if r.Notes == nil {
		r.Notes = []remote.EntryRow{}
	}
	return r, nil
}

// CheckMember validates a roster row and defaults its presence to offline.
func CheckMember(r remote.MemberRow) (remote.MemberRow, error) {
	m := models.TeamMember{Name: r.Name, Email: r.Email, Status: models.Presence(r.Status)}
	if err := m.Validate(); err != nil {
		return r, err
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	if r.Status == "" {
		r.Status = string(models.Offline)
	}
	return r, nil
}

// CheckMessage validates a chat message row. A deleted message keeps no
// content.
func CheckMessage(r remote.MessageRow) (remote.MessageRow, error) {
	m := models.ChatMessage{Author: r.Author, Content: r.Content, Deleted: r.IsDeleted}
	if err := m.Validate(); err != nil {
		return r, err
	}
	if r.IsDeleted {
		r.Content = ""
	}
	r.DeletedAt = nil
	return r, nil
}

// ReviseMessage keeps tombstones final: a deleted message accepts only the
// same tombstone again and keeps its deletion time. A message deleted now
// is stamped with now.
func ReviseMessage(stored, incoming remote.MessageRow, now time.Time) (remote.MessageRow, error) {
	if stored.IsDeleted {
		if !incoming.IsDeleted || incoming.IsEdited != stored.IsEdited {
			return incoming, models.ErrTombstoned
		}
		incoming.DeletedAt = stored.DeletedAt
		return incoming, nil
	}
	if incoming.IsDeleted {
		incoming.DeletedAt = &now
	}
	return incoming, nil
}
