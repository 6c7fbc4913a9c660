package state

import (
	"fmt"
	"slices"
	"time"

	"github.com/atinyakov/teamsync/internal/models"
	"github.com/atinyakov/teamsync/internal/remote"
)

// Reducer applies actions to states. Now is the only source of time, so a
// reducer with a fixed clock is fully deterministic.
type Reducer struct {
	Now func() time.Time
}

func (r Reducer) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now()
}

// Reduce applies a to s. It returns the next state, the remote calls to make,
// and, for a rejected intent, the reason. A rejected intent leaves every
// collection untouched; the rejection is still written to the error log.
func (r Reducer) Reduce(s State, a Action) (State, []Effect, error) {
	switch a.Kind {
	case models.KindTasks:
		return reduceKind(r, taskLens, s, a)
	case models.KindContacts:
		return reduceKind(r, contactLens, s, a)
	case models.KindMembers:
		return reduceKind(r, memberLens, s, a)
	case models.KindMessages:
		return reduceKind(r, messageLens, s, a)
	case KindSession:
		return r.reduceSession(s, a)
	}
	return s, nil, fmt.Errorf("%w: unknown kind %q", ErrBadAction, a.Kind)
}

func (r Reducer) reduceSession(s State, a Action) (State, []Effect, error) {
	now := r.now()
	switch a.Op {
	case OpSetTyping:
		users, ok := a.Payload.([]string)
		if !ok && a.Payload != nil {
			return s, nil, badPayload(a)
		}
		s.TypingUsers = slices.Clone(users)
		return s, nil, nil
	case OpClearError:
		s.Error = ""
		return s, nil, nil
	case OpRecordError:
		err, ok := a.Payload.(error)
		if !ok {
			return s, nil, badPayload(a)
		}
		return s.withError(now, err.Error()), nil, nil
	case OpLoadStarted:
		s.Loading = true
		s.LoadError = ""
		return s, nil, nil
	case OpLoadSucceeded:
		c, ok := a.Payload.(Collections)
		if !ok {
			return s, nil, badPayload(a)
		}
		s.Tasks = mergeLoaded(taskLens, s, c.Tasks)
		s.Contacts = mergeLoaded(contactLens, s, c.Contacts)
		s.Members = mergeLoaded(memberLens, s, c.Members)
		s.Messages = mergeLoaded(messageLens, s, c.Messages)
		s.Loading = false
		s.LoadError = ""
		s.LastSync = now
		return s, nil, nil
	case OpLoadFailed:
		err, ok := a.Payload.(error)
		if !ok {
			return s, nil, badPayload(a)
		}
		s.Loading = false
		s.LoadError = err.Error()
		return s.withError(now, "load workspace: "+err.Error()), nil, nil
	}
	return s, nil, badPayload(a)
}

// mergeLoaded replaces a collection with freshly loaded records. Local work
// that the store has not confirmed yet survives: placeholders of pending
// creates are kept, and records with an update or delete in flight keep
// their local version (or stay absent).
func mergeLoaded[E models.Entity[E]](l lens[E], s State, loaded []E) []E {
	current := l.get(s)
	out := make([]E, 0, len(loaded))
	var kept []E
	for _, rec := range current {
		if s.Pending(rec.Key()) {
			kept = append(kept, rec)
		}
	}
	if l.head {
		out = append(out, kept...)
	}
	for _, rec := range loaded {
		id := rec.Key()
		if indexOf(out, id) >= 0 {
			continue
		}
		if s.inflight[id] > 0 {
			local, ok := Find(current, id)
			if !ok {
				continue
			}
			rec = local
		}
		out = append(out, rec)
	}
	if !l.head {
		out = append(out, kept...)
	}
	return out
}

func reduceKind[E models.Entity[E]](r Reducer, l lens[E], s State, a Action) (State, []Effect, error) {
	now := r.now()
	coll := l.get(s)

	switch a.Op {
	case OpCreate:
		draft, ok := a.Payload.(E)
		if !ok {
			return s, nil, badPayload(a)
		}
		id := a.ID
		if id == "" {
			id = models.NewPlaceholderID()
		}
		if err := draft.Validate(); err != nil {
			return reject(s, now, l.kind, a.Op, err)
		}
		if indexOf(coll, id) >= 0 {
			return reject(s, now, l.kind, a.Op, &models.ValidationError{Field: "id", Reason: "duplicate id " + id})
		}
		rec := draft.Prepare(id, now)
		l.set(&s, insertAt(coll, l.position(coll, -1), rec))
		s = s.withPending(id, pendingCreate{})
		return s, []Effect{{Kind: l.kind, Op: remote.OpInsert, ID: id, Record: rec, Intent: OpCreate, Index: -1}}, nil

	case OpUpdate:
		patch, ok := a.Payload.(models.Patch[E])
		if !ok {
			return s, nil, badPayload(a)
		}
		i := indexOf(coll, a.ID)
		if i < 0 {
			return reject(s, now, l.kind, a.Op, notFound(a.ID))
		}
		if t, ok := any(coll[i]).(models.Tombstoner[E]); ok && t.IsTombstone() {
			return reject(s, now, l.kind, a.Op, models.ErrTombstoned)
		}
		after := patch.Apply(coll[i]).Touch(now)
		if err := after.Validate(); err != nil {
			return reject(s, now, l.kind, a.Op, err)
		}
		return applyLocal(l, s, i, after, OpUpdate)

	case OpAppendEntry:
		in, ok := a.Payload.(EntryInput)
		if !ok {
			return s, nil, badPayload(a)
		}
		i := indexOf(coll, a.ID)
		if i < 0 {
			return reject(s, now, l.kind, a.Op, notFound(a.ID))
		}
		parent, ok := any(coll[i]).(models.Annotatable[E])
		if !ok {
			return s, nil, fmt.Errorf("%w: %s records take no entries", ErrBadAction, l.kind)
		}
		entry, err := models.NewEntry(in.Content, in.Author, now)
		if err != nil {
			return reject(s, now, l.kind, a.Op, err)
		}
		return applyLocal(l, s, i, parent.AppendEntry(entry).Touch(now), OpAppendEntry)

	case OpDelete:
		i := indexOf(coll, a.ID)
		if i < 0 {
			return reject(s, now, l.kind, a.Op, notFound(a.ID))
		}
		before := coll[i]
		if t, ok := any(before).(models.Tombstoner[E]); ok {
			return applyLocal(l, s, i, t.Tombstone(), OpDelete)
		}
		l.set(&s, removeAt(coll, i))
		if p, ok := s.pending[a.ID]; ok {
			// The create is still in flight: nothing to delete remotely yet.
			p.deleted = true
			return s.withPending(a.ID, p), nil, nil
		}
		s = s.withInflight(a.ID, 1)
		return s, []Effect{{Kind: l.kind, Op: remote.OpDelete, ID: a.ID, Intent: OpDelete, Snapshot: before, Index: i}}, nil

	case OpCreateConfirmed:
		server, ok := a.Payload.(E)
		if !ok {
			return s, nil, badPayload(a)
		}
		p, wasPending := s.pending[a.ID]
		s = s.withoutPending(a.ID)
		s.LastSync = now
		if wasPending && p.deleted {
			s = s.withInflight(server.Key(), 1)
			return s, []Effect{{Kind: l.kind, Op: remote.OpDelete, ID: server.Key(), Intent: OpDelete, Snapshot: server, Index: -1}}, nil
		}
		i := indexOf(coll, a.ID)
		if i < 0 {
			return s, nil, nil
		}
		if j := indexOf(coll, server.Key()); j >= 0 {
			// A reload already brought the server record in.
			coll = replaceAt(coll, j, server)
			l.set(&s, removeAt(coll, i))
			return s, nil, nil
		}
		if !p.dirty {
			l.set(&s, replaceAt(coll, i, server))
			return s, nil, nil
		}
		// Local changes were made while the create was in flight; keep them
		// and push them under the server id.
		merged := coll[i].WithKey(server.Key())
		l.set(&s, replaceAt(coll, i, merged))
		s = s.withBase(server.Key(), server).withInflight(server.Key(), 1)
		return s, []Effect{{Kind: l.kind, Op: remote.OpUpdate, ID: server.Key(), Record: merged, Intent: OpUpdate, Snapshot: server, Index: i}}, nil

	case OpCreateFailed:
		cause, ok := a.Payload.(error)
		if !ok {
			return s, nil, badPayload(a)
		}
		p := s.pending[a.ID]
		s = s.withoutPending(a.ID)
		if i := indexOf(coll, a.ID); i >= 0 {
			l.set(&s, removeAt(coll, i))
		}
		if p.deleted {
			return s, nil, nil
		}
		return s.withError(now, failureMessage(l.kind, OpCreate, cause)), nil, nil

	case OpUpdateConfirmed:
		server, ok := a.Payload.(E)
		if !ok {
			return s, nil, badPayload(a)
		}
		s = s.withInflight(a.ID, -1)
		s.LastSync = now
		if s.inflight[a.ID] > 0 {
			// A newer local change is still on its way; keep it on screen.
			return s.withBase(a.ID, server), nil, nil
		}
		if i := indexOf(coll, a.ID); i >= 0 {
			l.set(&s, replaceAt(coll, i, server))
		}
		return s, nil, nil

	case OpUpdateFailed:
		f, ok := a.Payload.(Failure)
		if !ok {
			return s, nil, badPayload(a)
		}
		snap, _ := f.Snapshot.(E)
		restore := baseOf(s, a.ID, snap)
		s = s.withInflight(a.ID, -1)
		if s.inflight[a.ID] == 0 && restore.Key() != "" {
			// The last call in flight failed: go back to what the store holds.
			if i := indexOf(coll, a.ID); i >= 0 {
				l.set(&s, replaceAt(coll, i, restore))
			}
		}
		return s.withError(now, failureMessage(l.kind, f.Intent, f.Err)), nil, nil

	case OpDeleteConfirmed:
		s = s.withInflight(a.ID, -1)
		s.LastSync = now
		return s, nil, nil

	case OpDeleteFailed:
		f, ok := a.Payload.(Failure)
		if !ok {
			return s, nil, badPayload(a)
		}
		snap, ok := f.Snapshot.(E)
		if ok && s.inflight[a.ID] == 1 {
			snap = baseOf(s, a.ID, snap)
		}
		s = s.withInflight(a.ID, -1)
		if ok && indexOf(coll, snap.Key()) < 0 {
			l.set(&s, insertAt(coll, l.position(coll, f.Index), snap))
		}
		return s.withError(now, failureMessage(l.kind, OpDelete, f.Err)), nil, nil
	}

	return s, nil, badPayload(a)
}

// applyLocal installs after at index i and, unless the record is still a
// placeholder, emits the update that persists it.
func applyLocal[E models.Entity[E]](l lens[E], s State, i int, after E, intent Op) (State, []Effect, error) {
	coll := l.get(s)
	before := coll[i]
	l.set(&s, replaceAt(coll, i, after))
	id := before.Key()
	if p, ok := s.pending[id]; ok {
		p.dirty = true
		return s.withPending(id, p), nil, nil
	}
	if s.inflight[id] == 0 {
		s = s.withBase(id, before)
	}
	s = s.withInflight(id, 1)
	return s, []Effect{{Kind: l.kind, Op: remote.OpUpdate, ID: id, Record: after, Intent: intent, Snapshot: before, Index: i}}, nil
}

func reject(s State, now time.Time, kind models.Kind, op Op, err error) (State, []Effect, error) {
	return s.withError(now, failureMessage(kind, op, err)), nil, err
}

func failureMessage(kind models.Kind, op Op, err error) string {
	return fmt.Sprintf("%s %s: %v", verb(op), kind.Singular(), err)
}

func notFound(id string) error {
	return fmt.Errorf("%s: %w", id, models.ErrNotFound)
}

func badPayload(a Action) error {
	return fmt.Errorf("%w: %s %s with payload %T", ErrBadAction, a.Kind, a.Op, a.Payload)
}
