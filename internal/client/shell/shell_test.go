package shell

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/teamsync/internal/client/entity"
	"github.com/atinyakov/teamsync/internal/client/state"
	"github.com/atinyakov/teamsync/internal/client/storage"
	"github.com/atinyakov/teamsync/internal/models"
	"github.com/atinyakov/teamsync/internal/remote"
)

func newShell(t *testing.T, input string) (*Shell, *storage.Store, *strings.Builder) {
	t.Helper()
	repos := entity.NewRepositories(remote.NewMemoryStore("alice"), entity.DefaultPolicy(), zap.NewNop())
	store := storage.NewStore(repos, zap.NewNop())
	t.Cleanup(store.Close)
	loader := storage.NewLoader(store, repos, storage.DefaultLoaderOptions(), zap.NewNop())
	out := &strings.Builder{}
	return New(store, loader, strings.NewReader(input), out, "alice"), store, out
}

func TestShell_AddTaskAndList(t *testing.T) {
	sh, store, out := newShell(t, "add task\nDesign review\n\n\n\nwait\ntasks\nexit\n")
	sh.Run(context.Background())

	tasks := store.Snapshot().Tasks
	require.Len(t, tasks, 1)
	assert.False(t, models.IsPlaceholder(tasks[0].ID), "create should be confirmed after wait")
	assert.Contains(t, out.String(), "Design review")
	assert.Contains(t, out.String(), "Bye")
}

func TestShell_RejectedIntentIsReported(t *testing.T) {
	sh, store, out := newShell(t, "add task\n\n\n\n\nmove ghost done\nerrors\n")
	sh.Run(context.Background())

	assert.Empty(t, store.Snapshot().Tasks)
	assert.Equal(t, 2, strings.Count(out.String(), "Rejected:"))
	assert.Len(t, store.Snapshot().Errors, 2)
}

func TestShell_Chat(t *testing.T) {
	sh, store, out := newShell(t, "say hello team\nwait\ntyping bob\nchat\n")
	sh.Run(context.Background())

	msgs := store.Snapshot().Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello team", msgs[0].Content)
	assert.Equal(t, "alice", msgs[0].Author)
	assert.Contains(t, out.String(), "alice: hello team")
	assert.Contains(t, out.String(), "bob typing...")

	sh.Exec(context.Background(), []string{"unsay", msgs[0].ID})
	store.Wait()
	msgs = store.Snapshot().Messages
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Deleted)
}

func TestShell_Usage(t *testing.T) {
	sh, _, out := newShell(t, "")

	assert.True(t, sh.Exec(context.Background(), []string{"comment"}))
	assert.True(t, sh.Exec(context.Background(), []string{"frobnicate"}))
	assert.False(t, sh.Exec(context.Background(), []string{"exit"}))

	assert.Contains(t, out.String(), "Usage: comment <task-id> <text>")
	assert.Contains(t, out.String(), "Unknown command")
}

func TestShell_Status(t *testing.T) {
	mem := remote.NewMemoryStore("alice")
	release := make(chan struct{})
	mem.SetHook(func(ctx context.Context, _ models.Kind, op remote.Op) error {
		if op != remote.OpInsert {
			return nil
		}
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	repos := entity.NewRepositories(mem, entity.DefaultPolicy(), zap.NewNop())
	store := storage.NewStore(repos, zap.NewNop())
	t.Cleanup(store.Close)
	out := &strings.Builder{}
	sh := New(store, failingRefresher{}, strings.NewReader("add task\nDesign review\n\n\n\nstatus\n"), out, "alice")

	sh.Run(context.Background())
	assert.Contains(t, out.String(), "Pending creates: 1")
	assert.Contains(t, out.String(), "Last sync: never")
	assert.Contains(t, out.String(), "Errors: 0")

	close(release)
	store.Wait()
	out.Reset()
	sh.Exec(context.Background(), []string{"status"})
	assert.Contains(t, out.String(), "Pending creates: 0")
	assert.NotContains(t, out.String(), "Last sync: never")
}

type failingRefresher struct{}

func (failingRefresher) Refresh(context.Context) error { return errors.New("offline") }

type recordingStore struct {
	actions []state.Action
}

func (r *recordingStore) Dispatch(a state.Action) error {
	r.actions = append(r.actions, a)
	return nil
}
func (r *recordingStore) Snapshot() state.State { return state.New() }
func (r *recordingStore) Wait()                 {}

func TestShell_CommandsMapToActions(t *testing.T) {
	rec := &recordingStore{}
	out := &strings.Builder{}
	sh := New(rec, failingRefresher{}, strings.NewReader(""), out, "alice")
	ctx := context.Background()

	sh.Exec(ctx, []string{"comment", "t1", "looks", "good"})
	sh.Exec(ctx, []string{"note", "c1", "called"})
	sh.Exec(ctx, []string{"presence", "m1", "online"})
	sh.Exec(ctx, []string{"delete", "contact", "c1"})
	sh.Exec(ctx, []string{"refresh"})

	require.Len(t, rec.actions, 4)
	assert.Equal(t, models.KindTasks, rec.actions[0].Kind)
	assert.Equal(t, state.OpAppendEntry, rec.actions[0].Op)
	assert.Equal(t, "t1", rec.actions[0].ID)
	assert.Equal(t, state.EntryInput{Content: "looks good", Author: "alice"}, rec.actions[0].Payload)
	assert.Equal(t, models.KindContacts, rec.actions[1].Kind)
	assert.Equal(t, state.OpUpdate, rec.actions[2].Op)
	assert.Equal(t, state.OpDelete, rec.actions[3].Op)
	assert.Contains(t, out.String(), "Refresh failed: offline")
}
