package remote

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/teamsync/internal/models"
)

// Hook is called before every MemoryStore operation. A non-nil error fails
// the operation without touching the data; a hook may also block to
// simulate latency, in which case it should honour ctx.
type Hook func(ctx context.Context, kind models.Kind, op Op) error

// MemoryStore is a Store kept in process memory for a single caller. It is
// used as an offline backend and as a test double.
type MemoryStore struct {
	owner string
	now   func() time.Time

	hookMu sync.RWMutex
	hook   Hook

	tasks    *memCollection[TaskRow]
	contacts *memCollection[ContactRow]
	members  *memCollection[MemberRow]
	messages *memCollection[MessageRow]
}

// NewMemoryStore returns an empty store owned by owner.
func NewMemoryStore(owner string) *MemoryStore {
	s := &MemoryStore{owner: owner, now: time.Now}
	s.tasks = &memCollection[TaskRow]{store: s, kind: models.KindTasks}
	s.contacts = &memCollection[ContactRow]{store: s, kind: models.KindContacts}
	s.members = &memCollection[MemberRow]{store: s, kind: models.KindMembers}
	s.messages = &memCollection[MessageRow]{store: s, kind: models.KindMessages}
	return s
}

// SetHook installs h for every subsequent operation; nil removes it.
func (s *MemoryStore) SetHook(h Hook) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.hook = h
}

func (s *MemoryStore) Tasks() Collection[TaskRow]       { return s.tasks }
func (s *MemoryStore) Contacts() Collection[ContactRow] { return s.contacts }
func (s *MemoryStore) Members() Collection[MemberRow]   { return s.members }
func (s *MemoryStore) Messages() Collection[MessageRow] { return s.messages }

func (s *MemoryStore) before(ctx context.Context, kind models.Kind, op Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.hookMu.RLock()
	h := s.hook
	s.hookMu.RUnlock()
	if h == nil {
		return nil
	}
	return h(ctx, kind, op)
}

type memCollection[R Row[R]] struct {
	store *MemoryStore
	kind  models.Kind

	mu   sync.Mutex
	rows []R
}

func (c *memCollection[R]) List(ctx context.Context) ([]R, error) {
	if err := c.store.before(ctx, c.kind, OpList); err != nil {
		return nil, err
	}
	c.mu.Lock()
	out := slices.Clone(c.rows)
	c.mu.Unlock()
	if out == nil {
		out = []R{}
	}
	slices.SortStableFunc(out, func(a, b R) int {
		return a.Created().Compare(b.Created())
	})
	return out, nil
}

func (c *memCollection[R]) Insert(ctx context.Context, row R) (R, error) {
	var zero R
	if err := c.store.before(ctx, c.kind, OpInsert); err != nil {
		return zero, err
	}
	now := c.store.now().UTC()
	stored := row.Assign(uuid.NewString(), c.store.owner, now, now)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = append(c.rows, stored)
	return stored, nil
}

func (c *memCollection[R]) Update(ctx context.Context, id string, row R) (R, error) {
	var zero R
	if err := c.store.before(ctx, c.kind, OpUpdate); err != nil {
		return zero, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return zero, fmt.Errorf("update %s %s: %w", c.kind, id, ErrNotFound)
	}
	stored := row.Assign(id, c.store.owner, c.rows[i].Created(), c.store.now().UTC())
	c.rows[i] = stored
	return stored, nil
}

func (c *memCollection[R]) Delete(ctx context.Context, id string) error {
	if err := c.store.before(ctx, c.kind, OpDelete); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("delete %s %s: %w", c.kind, id, ErrNotFound)
	}
	c.rows = slices.Delete(c.rows, i, i+1)
	return nil
}

func (c *memCollection[R]) index(id string) int {
	return slices.IndexFunc(c.rows, func(r R) bool { return r.RowID() == id })
}
