// Package entity holds the per-kind repositories of the client: the only
// code allowed to call the remote store. A repository validates records
// before they leave the process, maps them between local and remote shape,
// and bounds every call with a timeout and a retry budget.
package entity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/teamsync/internal/models"
	"github.com/atinyakov/teamsync/internal/remote"
)

// PermanentError is returned once a call cannot succeed: the failure was not
// retriable, or the retry budget is spent.
type PermanentError struct {
	Kind     models.Kind
	Op       remote.Op
	Attempts int
	Err      error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s %s failed after %d attempt(s): %v", e.Op, e.Kind.Singular(), e.Attempts, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Repository is the client-side gateway to one remote collection.
type Repository[E models.Entity[E], R any] struct {
	kind   models.Kind
	coll   remote.Collection[R]
	mapper Mapper[E, R]
	policy Policy
	log    *zap.Logger
}

// New builds a repository for kind over coll.
func New[E models.Entity[E], R any](
	kind models.Kind,
	coll remote.Collection[R],
	mapper Mapper[E, R],
	policy Policy,
	log *zap.Logger,
) *Repository[E, R] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository[E, R]{
		kind:   kind,
		coll:   coll,
		mapper: mapper,
		policy: policy,
		log:    log.With(zap.String("kind", string(kind))),
	}
}

// List fetches the caller's records, oldest first. A collection that does
// not exist remotely is reported as empty.
func (r *Repository[E, R]) List(ctx context.Context) ([]E, error) {
	var rows []R
	err := r.do(ctx, remote.OpList, r.policy.ListTimeout, func(ctx context.Context) error {
		var err error
		rows, err = r.coll.List(ctx)
		return err
	})
	if errors.Is(err, remote.ErrSchemaMissing) {
		r.log.Warn("remote collection missing, treating as empty")
		return []E{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]E, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.mapper.FromRemote(row))
	}
	return out, nil
}

// Create submits a new record and returns the canonical record assigned by
// the remote store. The record id, if any, is not sent.
func (r *Repository[E, R]) Create(ctx context.Context, draft E) (E, error) {
	var zero E
	if err := draft.Validate(); err != nil {
		return zero, err
	}
	row := r.mapper.ToRemote(draft.WithKey(""))
	var stored R
	err := r.do(ctx, remote.OpInsert, r.policy.CreateTimeout, func(ctx context.Context) error {
		var err error
		stored, err = r.coll.Insert(ctx, row)
		return err
	})
	if err != nil {
		return zero, err
	}
	return r.mapper.FromRemote(stored), nil
}

// Update replaces the record with the given server id.
func (r *Repository[E, R]) Update(ctx context.Context, id string, rec E) (E, error) {
	var zero E
	if models.IsPlaceholder(id) || id == "" {
		return zero, &models.ValidationError{Field: "id", Reason: "record is not confirmed by the server yet"}
	}
	if err := rec.Validate(); err != nil {
		return zero, err
	}
	row := r.mapper.ToRemote(rec.WithKey(id))
	var stored R
	err := r.do(ctx, remote.OpUpdate, r.policy.UpdateTimeout, func(ctx context.Context) error {
		var err error
		stored, err = r.coll.Update(ctx, id, row)
		return err
	})
	if err != nil {
		return zero, err
	}
	return r.mapper.FromRemote(stored), nil
}

// Delete removes the record with the given server id.
func (r *Repository[E, R]) Delete(ctx context.Context, id string) error {
	if models.IsPlaceholder(id) || id == "" {
		return &models.ValidationError{Field: "id", Reason: "record is not confirmed by the server yet"}
	}
	return r.do(ctx, remote.OpDelete, r.policy.DeleteTimeout, func(ctx context.Context) error {
		return r.coll.Delete(ctx, id)
	})
}

// do runs call with a per-attempt timeout, retrying transient failures with
// exponential backoff.
func (r *Repository[E, R]) do(ctx context.Context, op remote.Op, timeout time.Duration, call func(context.Context) error) error {
	attempts := r.policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var lastErr error
	attempt := 0
	for attempt < attempts {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		err := call(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil || !remote.IsTransient(err) || attempt == attempts {
			break
		}
		delay := r.policy.Backoff.Delay(attempt)
		r.log.Debug("retrying remote call",
			zap.String("op", string(op)),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := WaitWithContext(ctx, delay); err != nil {
			break
		}
	}
	return &PermanentError{Kind: r.kind, Op: op, Attempts: attempt, Err: lastErr}
}

// Repositories bundles one repository per collection kind.
type Repositories struct {
	Tasks    *Repository[models.Task, remote.TaskRow]
	Contacts *Repository[models.Contact, remote.ContactRow]
	Members  *Repository[models.TeamMember, remote.MemberRow]
	Messages *Repository[models.ChatMessage, remote.MessageRow]
}

// NewRepositories wires a repository for every collection of store.
func NewRepositories(store remote.Store, policy Policy, log *zap.Logger) *Repositories {
	return &Repositories{
		Tasks:    New[models.Task, remote.TaskRow](models.KindTasks, store.Tasks(), TaskMapper{}, policy, log),
		Contacts: New[models.Contact, remote.ContactRow](models.KindContacts, store.Contacts(), ContactMapper{}, policy, log),
		Members:  New[models.TeamMember, remote.MemberRow](models.KindMembers, store.Members(), MemberMapper{}, policy, log),
		Messages: New[models.ChatMessage, remote.MessageRow](models.KindMessages, store.Messages(), MessageMapper{}, policy, log),
	}
}
