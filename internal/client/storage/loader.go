package storage

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/teamsync/internal/client/entity"
	"github.com/atinyakov/teamsync/internal/client/state"
)

// BootstrapError is the terminal failure to load the workspace. Unlike
// per-operation errors it leaves the client without usable state.
type BootstrapError struct {
	Attempts int
	Err      error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("failed to load workspace after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }

// LoaderOptions bounds the bootstrap.
type LoaderOptions struct {
	// Timeout covers one attempt: all four collections together.
	Timeout time.Duration
	// Attempts is the number of bootstrap attempts, first one included.
	Attempts int
	Backoff  entity.Backoff
}

// DefaultLoaderOptions returns the bootstrap bounds used by the client.
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{
		Timeout:  20 * time.Second,
		Attempts: 3,
		Backoff:  entity.Backoff{Initial: time.Second, Max: 8 * time.Second, Multiplier: 2},
	}
}

// Loader fills a Store from the remote store.
type Loader struct {
	store *Store
	repos *entity.Repositories
	opts  LoaderOptions
	log   *zap.Logger
}

// NewLoader returns a loader populating store through repos.
func NewLoader(store *Store, repos *entity.Repositories, opts LoaderOptions, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultLoaderOptions().Timeout
	}
	return &Loader{store: store, repos: repos, opts: opts, log: log}
}

// Load fetches every collection, retrying the whole bootstrap with growing
// backoff. On exhaustion the store's LoadError is set and a
// *BootstrapError is returned.
func (l *Loader) Load(ctx context.Context) error {
	_ = l.store.Dispatch(state.LoadStarted())

	var errs error
	attempt := 0
	for attempt < l.opts.Attempts {
		attempt++
		c, err := l.fetch(ctx)
		if err == nil {
			l.log.Info("workspace loaded",
				zap.Int("attempt", attempt),
				zap.Int("tasks", len(c.Tasks)),
				zap.Int("contacts", len(c.Contacts)),
				zap.Int("members", len(c.Members)),
				zap.Int("messages", len(c.Messages)),
			)
			return l.store.Dispatch(state.LoadSucceeded(c))
		}
		errs = multierr.Append(errs, fmt.Errorf("attempt %d: %w", attempt, err))
		l.log.Warn("workspace load failed", zap.Int("attempt", attempt), zap.Error(err))
		if ctx.Err() != nil || attempt == l.opts.Attempts {
			break
		}
		if err := entity.WaitWithContext(ctx, l.opts.Backoff.Delay(attempt)); err != nil {
			break
		}
	}

	be := &BootstrapError{Attempts: attempt, Err: errs}
	_ = l.store.Dispatch(state.LoadFailed(be))
	return be
}

// Refresh makes one fetch of every collection and merges the result into
// the state. A failure is logged as an operation error, not a load error.
func (l *Loader) Refresh(ctx context.Context) error {
	c, err := l.fetch(ctx)
	if err != nil {
		err = fmt.Errorf("refresh workspace: %w", err)
		_ = l.store.Dispatch(state.RecordError(err))
		return err
	}
	return l.store.Dispatch(state.LoadSucceeded(c))
}

func (l *Loader) fetch(ctx context.Context) (state.Collections, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	var c state.Collections
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		c.Tasks, err = l.repos.Tasks.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.Contacts, err = l.repos.Contacts.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.Members, err = l.repos.Members.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.Messages, err = l.repos.Messages.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return state.Collections{}, err
	}
	slices.Reverse(c.Tasks)
	slices.Reverse(c.Contacts)
	slices.Reverse(c.Members)
	return c, nil
}
