// Package storage runs the optimistic synchronization core: it owns the
// client state, applies every action through the reducer, performs the
// remote calls the reducer asks for, and feeds their outcome back as
// reconciliation actions. It also bootstraps the state from the remote
// store and keeps it fresh.
package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/teamsync/internal/client/entity"
	"github.com/atinyakov/teamsync/internal/client/state"
	"github.com/atinyakov/teamsync/internal/models"
	"github.com/atinyakov/teamsync/internal/remote"
)

// Store is the single owner of the client state. Transitions are applied
// one at a time under a mutex; remote calls run concurrently and never
// block further intents.
type Store struct {
	repos   *entity.Repositories
	reducer state.Reducer
	log     *zap.Logger

	mu    sync.Mutex
	state state.State
	subs  map[int]func(state.State)
	next  int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the clock used to stamp records and errors.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.reducer.Now = now }
}

// WithInitialState starts the store from st instead of an empty state.
func WithInitialState(st state.State) Option {
	return func(s *Store) { s.state = st }
}

// NewStore returns a store issuing remote calls through repos.
func NewStore(repos *entity.Repositories, log *zap.Logger, opts ...Option) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		repos:  repos,
		log:    log,
		state:  state.New(),
		subs:   make(map[int]func(state.State)),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch applies a to the state and starts the remote calls it implies.
// A rejected intent returns its reason; it is also written to the error
// log, and no collection changes.
func (s *Store) Dispatch(a state.Action) error {
	s.mu.Lock()
	next, effects, err := s.reducer.Reduce(s.state, a)
	s.state = next
	subs := make([]func(state.State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	for _, e := range effects {
		s.launch(e)
	}
	return err
}

// Snapshot returns the current state.
func (s *Store) Snapshot() state.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to receive every new state. Under concurrent
// dispatches fn may see states out of order; Snapshot is authoritative.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(state.State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Wait blocks until every remote call started so far, and every call those
// calls led to, has been reconciled.
func (s *Store) Wait() {
	s.wg.Wait()
}

// Close cancels the remote calls still in flight and waits for their
// failures to be reconciled.
func (s *Store) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Store) launch(e state.Effect) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		started := time.Now()
		follow, err := s.execute(s.ctx, e)
		fields := []zap.Field{
			zap.String("kind", string(e.Kind)),
			zap.String("op", string(e.Op)),
			zap.String("id", e.ID),
			zap.Duration("elapsed", time.Since(started)),
		}
		if err != nil {
			s.log.Warn("remote call failed", append(fields, zap.Error(err))...)
		} else {
			s.log.Debug("remote call confirmed", fields...)
		}
		if derr := s.Dispatch(follow); derr != nil {
			s.log.Error("failed to reconcile remote call", append(fields, zap.Error(derr))...)
		}
	}()
}

func (s *Store) execute(ctx context.Context, e state.Effect) (state.Action, error) {
	switch e.Kind {
	case models.KindTasks:
		return run(ctx, s.repos.Tasks, e)
	case models.KindContacts:
		return run(ctx, s.repos.Contacts, e)
	case models.KindMembers:
		return run(ctx, s.repos.Members, e)
	case models.KindMessages:
		return run(ctx, s.repos.Messages, e)
	}
	err := fmt.Errorf("no repository for %q", e.Kind)
	return e.Failed(err), err
}

func run[E models.Entity[E], R any](ctx context.Context, repo *entity.Repository[E, R], e state.Effect) (state.Action, error) {
	switch e.Op {
	case remote.OpInsert:
		rec, _ := e.Record.(E)
		stored, err := repo.Create(ctx, rec)
		if err != nil {
			return e.Failed(err), err
		}
		return e.Succeeded(stored), nil
	case remote.OpUpdate:
		rec, _ := e.Record.(E)
		stored, err := repo.Update(ctx, e.ID, rec)
		if err != nil {
			return e.Failed(err), err
		}
		return e.Succeeded(stored), nil
	case remote.OpDelete:
		if err := repo.Delete(ctx, e.ID); err != nil {
			return e.Failed(err), err
		}
		return e.Succeeded(nil), nil
	}
	err := fmt.Errorf("unsupported remote op %q", e.Op)
	return e.Failed(err), err
}

// Tasks returns the current tasks, newest first.
func (s *Store) Tasks() []models.Task { return slices.Clone(s.Snapshot().Tasks) }

// Contacts returns the current contacts, newest first.
func (s *Store) Contacts() []models.Contact { return slices.Clone(s.Snapshot().Contacts) }

// Members returns the current team roster, newest first.
func (s *Store) Members() []models.TeamMember { return slices.Clone(s.Snapshot().Members) }

// Messages returns the chat, oldest first.
func (s *Store) Messages() []models.ChatMessage { return slices.Clone(s.Snapshot().Messages) }
