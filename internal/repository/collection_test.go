package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/teamsync/internal/remote"
)

var messageColumns = []string{"id", "user_login", "author", "content", "is_edited", "is_deleted", "deleted_at", "created_at"}

var taskColumns = []string{"id", "user_login", "title", "description", "status", "assignee", "due_date", "comments", "created_at", "updated_at"}

func setupCollectionMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestTaskList(t *testing.T) {
	db, mock := setupCollectionMock(t)
	repo := NewPostgresTaskRepository(db)
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_login, title, description, status, assignee, due_date, comments, created_at, updated_at FROM tasks WHERE user_login = $1 ORDER BY created_at`)).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(taskColumns).
			AddRow("t1", "alice", "Write docs", "", "doing", "bob", "2024-03-05",
				[]byte(`[{"id":"c1","author":"bob","content":"on it","created_at":"2024-03-01T11:00:00Z"}]`), created, created).
			AddRow("t2", "alice", "Ship", "", "todo", "", nil, []byte(`[]`), created, created))

	rows, err := repo.List(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Write docs", rows[0].Title)
	require.NotNil(t, rows[0].DueDate)
	assert.Equal(t, "2024-03-05", *rows[0].DueDate)
	require.Len(t, rows[0].Comments, 1)
	assert.Equal(t, "on it", rows[0].Comments[0].Content)

	assert.Nil(t, rows[1].DueDate)
	assert.NotNil(t, rows[1].Comments)
	assert.Empty(t, rows[1].Comments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMissingTable(t *testing.T) {
	db, mock := setupCollectionMock(t)
	repo := NewPostgresContactRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM contacts WHERE user_login = $1`)).
		WithArgs("alice").
		WillReturnError(&pq.Error{Code: undefinedTable, Message: `relation "contacts" does not exist`})

	_, err := repo.List(context.Background(), "alice")
	assert.ErrorIs(t, err, remote.ErrSchemaMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageInsert(t *testing.T) {
	db, mock := setupCollectionMock(t)
	repo := NewPostgresMessageRepository(db)
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	row := remote.MessageRow{ID: "m1", Author: "alice", Content: "hello", CreatedAt: at}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO messages (id, user_login, author, content, is_edited, is_deleted, deleted_at, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING`)).
		WithArgs("m1", "alice", "alice", "hello", false, false, sql.NullTime{}, at).
		WillReturnRows(sqlmock.NewRows(messageColumns).
			AddRow("m1", "alice", "alice", "hello", false, false, nil, at))

	stored, err := repo.Insert(context.Background(), "alice", row)
	require.NoError(t, err)
	assert.Equal(t, "m1", stored.ID)
	assert.Equal(t, "alice", stored.UserID)
	assert.Equal(t, at, stored.CreatedAt)
	assert.Nil(t, stored.DeletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageGet(t *testing.T) {
	db, mock := setupCollectionMock(t)
	repo := NewPostgresMessageRepository(db)
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	deleted := at.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM messages WHERE user_login = $1 AND id = $2`)).
		WithArgs("alice", "m1").
		WillReturnRows(sqlmock.NewRows(messageColumns).
			AddRow("m1", "alice", "alice", "", false, true, deleted, at))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM messages WHERE user_login = $1 AND id = $2`)).
		WithArgs("alice", "ghost").
		WillReturnRows(sqlmock.NewRows(messageColumns))

	stored, err := repo.Get(context.Background(), "alice", "m1")
	require.NoError(t, err)
	assert.True(t, stored.IsDeleted)
	require.NotNil(t, stored.DeletedAt)
	assert.Equal(t, deleted, *stored.DeletedAt)

	_, err = repo.Get(context.Background(), "alice", "ghost")
	assert.ErrorIs(t, err, remote.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberUpdate(t *testing.T) {
	db, mock := setupCollectionMock(t)
	repo := NewPostgresMemberRepository(db)
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	row := remote.MemberRow{Name: "Bob", Email: "bob@example.com", Role: "dev", Status: "online"}

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE members SET name = $3, email = $4, role = $5, avatar_url = $6, status = $7, updated_at = $8 WHERE user_login = $1 AND id = $2`)).
		WithArgs("alice", "u1", "Bob", "bob@example.com", "dev", "", "online", updated).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_login", "name", "email", "role", "avatar_url", "status", "created_at", "updated_at"}).
			AddRow("u1", "alice", "Bob", "bob@example.com", "dev", "", "online", created, updated))

	stored, err := repo.Update(context.Background(), "alice", "u1", row, updated)
	require.NoError(t, err)
	assert.Equal(t, "online", stored.Status)
	assert.Equal(t, created, stored.CreatedAt)
	assert.Equal(t, updated, stored.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUnknownRow(t *testing.T) {
	db, mock := setupCollectionMock(t)
	repo := NewPostgresTaskRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE tasks SET`)).
		WillReturnRows(sqlmock.NewRows(taskColumns))

	_, err := repo.Update(context.Background(), "alice", "ghost", remote.TaskRow{Title: "x", Status: "todo"}, time.Now())
	assert.ErrorIs(t, err, remote.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	db, mock := setupCollectionMock(t)
	repo := NewPostgresContactRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM contacts WHERE user_login = $1 AND id = $2`)).
		WithArgs("alice", "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM contacts WHERE user_login = $1 AND id = $2`)).
		WithArgs("alice", "c1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "alice", "c1"))
	err := repo.Delete(context.Background(), "alice", "c1")
	assert.True(t, errors.Is(err, remote.ErrNotFound), "second delete should report a missing row, got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletedMessageStoresNoContent(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	vals, err := messageTable.values(remote.MessageRow{Author: "alice", Content: "secret", IsDeleted: true, DeletedAt: &at})
	require.NoError(t, err)
	assert.Equal(t, []any{"alice", "", false, true, sql.NullTime{Time: at, Valid: true}}, vals)
}
