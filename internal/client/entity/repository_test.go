package entity_test

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/teamsync/internal/client/entity"
	"github.com/atinyakov/teamsync/internal/models"
	"github.com/atinyakov/teamsync/internal/remote"
)

func testPolicy() entity.Policy {
	return entity.Policy{
		ListTimeout:   30 * time.Millisecond,
		CreateTimeout: 30 * time.Millisecond,
		UpdateTimeout: 30 * time.Millisecond,
		DeleteTimeout: 30 * time.Millisecond,
		MaxAttempts:   3,
		Backoff:       entity.Backoff{Initial: time.Millisecond, Max: 2 * time.Millisecond, Multiplier: 2},
	}
}

// countingHook returns a hook failing every call with err (nil lets the call
// through) and a counter of the calls made.
func countingHook(err error) (remote.Hook, *atomic.Int32) {
	var n atomic.Int32
	return func(ctx context.Context, _ models.Kind, _ remote.Op) error {
		n.Add(1)
		return err
	}, &n
}

func taskRepo(mem *remote.MemoryStore) *entity.Repository[models.Task, remote.TaskRow] {
	return entity.NewRepositories(mem, testPolicy(), nil).Tasks
}

func TestCreate_ReturnsServerRecord(t *testing.T) {
	mem := remote.NewMemoryStore("ann")
	repo := taskRepo(mem)

	draft := models.Task{ID: models.NewPlaceholderID(), Title: "Plan sprint", Status: models.TaskTodo, DueDate: "2024-06-01"}
	got, err := repo.Create(context.Background(), draft)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.False(t, models.IsPlaceholder(got.ID))
	assert.Equal(t, "Plan sprint", got.Title)
	assert.Equal(t, "2024-06-01", got.DueDate)
	assert.False(t, got.CreatedAt.IsZero())
	assert.NotNil(t, got.Comments)
}

func TestCreate_ValidationSkipsRemote(t *testing.T) {
	mem := remote.NewMemoryStore("ann")
	hook, calls := countingHook(nil)
	mem.SetHook(hook)

	_, err := taskRepo(mem).Create(context.Background(), models.Task{Title: ""})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
	assert.Zero(t, calls.Load())
}

func TestDo_RetriesTransientFailures(t *testing.T) {
	mem := remote.NewMemoryStore("ann")
	hook, calls := countingHook(&remote.TransientError{Op: remote.OpList, Err: errors.New("503")})
	mem.SetHook(hook)

	_, err := taskRepo(mem).List(context.Background())
	require.Error(t, err)
	var pe *entity.PermanentError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Attempts)
	assert.Equal(t, remote.OpList, pe.Op)
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, err.Error(), "list task failed after 3 attempt(s)")
}

func TestDo_DoesNotRetryPermanentFailures(t *testing.T) {
	mem := remote.NewMemoryStore("ann")
	rejected := &remote.StatusError{StatusCode: http.StatusBadRequest, Message: "no"}
	hook, calls := countingHook(rejected)
	mem.SetHook(hook)

	_, err := taskRepo(mem).Create(context.Background(), models.Task{Title: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, rejected)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_TimesOutEachAttempt(t *testing.T) {
	mem := remote.NewMemoryStore("ann")
	var calls atomic.Int32
	mem.SetHook(func(ctx context.Context, _ models.Kind, _ remote.Op) error {
		calls.Add(1)
		<-ctx.Done()
		return ctx.Err()
	})

	started := time.Now()
	err := taskRepo(mem).Delete(context.Background(), "row-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(3), calls.Load())
	assert.Less(t, time.Since(started), time.Second)
}

func TestDo_StopsWhenCallerGivesUp(t *testing.T) {
	mem := remote.NewMemoryStore("ann")
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	mem.SetHook(func(context.Context, models.Kind, remote.Op) error {
		calls.Add(1)
		cancel()
		return &remote.TransientError{Op: remote.OpUpdate, Err: errors.New("reset")}
	})

	_, err := taskRepo(mem).Update(ctx, "row-1", models.Task{Title: "x"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestUpdateAndDelete_RejectPlaceholders(t *testing.T) {
	mem := remote.NewMemoryStore("ann")
	hook, calls := countingHook(nil)
	mem.SetHook(hook)
	repo := taskRepo(mem)
	id := models.NewPlaceholderID()

	_, err := repo.Update(context.Background(), id, models.Task{Title: "x"})
	assert.True(t, models.IsValidation(err))
	assert.True(t, models.IsValidation(repo.Delete(context.Background(), id)))
	assert.True(t, models.IsValidation(repo.Delete(context.Background(), "")))
	assert.Zero(t, calls.Load())
}

func TestUpdate_UnknownRow(t *testing.T) {
	repo := taskRepo(remote.NewMemoryStore("ann"))
	_, err := repo.Update(context.Background(), "missing", models.Task{Title: "x"})
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestList_MissingSchemaIsEmpty(t *testing.T) {
	mem := remote.NewMemoryStore("ann")
	hook, calls := countingHook(remote.ErrSchemaMissing)
	mem.SetHook(hook)

	repos := entity.NewRepositories(mem, testPolicy(), nil)
	contacts, err := repos.Contacts.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)
	assert.Equal(t, int32(1), calls.Load())
}

func TestList_MapsRows(t *testing.T) {
	mem := remote.NewMemoryStore("ann")
	ctx := context.Background()
	_, err := mem.Messages().Insert(ctx, remote.MessageRow{Author: "ann", Content: "secret", IsDeleted: true})
	require.NoError(t, err)
	_, err = mem.Members().Insert(ctx, remote.MemberRow{Name: "Ann", Email: "ann@example.com", AvatarURL: "a.png"})
	require.NoError(t, err)

	repos := entity.NewRepositories(mem, testPolicy(), nil)
	msgs, err := repos.Messages.List(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Deleted)
	assert.Empty(t, msgs[0].Content)

	members, err := repos.Members.List(ctx)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "a.png", members[0].Avatar)
	assert.Equal(t, models.Offline, members[0].Status)
}

func TestBackoffDelay(t *testing.T) {
	b := entity.Backoff{Initial: 100 * time.Millisecond, Max: time.Second, Multiplier: 2}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{5, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.Delay(tt.attempt), "attempt %d", tt.attempt)
	}

	assert.Equal(t, 200*time.Millisecond, entity.Backoff{}.Delay(1))
	assert.Equal(t, 2*time.Second, entity.Backoff{}.Delay(10))
}

func TestWaitWithContext(t *testing.T) {
	require.NoError(t, entity.WaitWithContext(context.Background(), 0))
	require.NoError(t, entity.WaitWithContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, entity.WaitWithContext(ctx, time.Hour), context.Canceled)
}

func TestDefaultPolicy(t *testing.T) {
	p := entity.DefaultPolicy()
	assert.Greater(t, p.ListTimeout, p.DeleteTimeout)
	assert.Equal(t, 3, p.MaxAttempts)
}
