package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/atinyakov/teamsync/internal/remote"
)

// NewPostgresTaskRepository returns the tasks collection stored in db.
func NewPostgresTaskRepository(db *sql.DB) *PostgresCollection[remote.TaskRow] {
	return &PostgresCollection[remote.TaskRow]{DB: db, table: taskTable}
}

// NewPostgresContactRepository returns the contacts collection stored in db.
func NewPostgresContactRepository(db *sql.DB) *PostgresCollection[remote.ContactRow] {
	return &PostgresCollection[remote.ContactRow]{DB: db, table: contactTable}
}

// NewPostgresMemberRepository returns the team roster stored in db.
func NewPostgresMemberRepository(db *sql.DB) *PostgresCollection[remote.MemberRow] {
	return &PostgresCollection[remote.MemberRow]{DB: db, table: memberTable}
}

// NewPostgresMessageRepository returns the chat messages stored in db.
func NewPostgresMessageRepository(db *sql.DB) *PostgresCollection[remote.MessageRow] {
	return &PostgresCollection[remote.MessageRow]{DB: db, table: messageTable}
}

var taskTable = table[remote.TaskRow]{
	name:       "tasks",
	columns:    []string{"title", "description", "status", "assignee", "due_date", "comments"},
	hasUpdated: true,
	values: func(r remote.TaskRow) ([]any, error) {
		comments, err := encodeEntries(r.Comments)
		if err != nil {
			return nil, err
		}
		var due sql.NullString
		if r.DueDate != nil {
			due = sql.NullString{String: *r.DueDate, Valid: true}
		}
		return []any{r.Title, r.Description, r.Status, r.Assignee, due, comments}, nil
	},
	scan: func(s rowScanner) (remote.TaskRow, error) {
		var (
			r        remote.TaskRow
			due      sql.NullString
			comments []byte
		)
		err := s.Scan(&r.ID, &r.UserID, &r.Title, &r.Description, &r.Status, &r.Assignee, &due, &comments, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return r, err
		}
		if due.Valid {
			r.DueDate = &due.String
		}
		r.Comments, err = decodeEntries(comments)
		return r, err
	},
}

var contactTable = table[remote.ContactRow]{
	name:       "contacts",
	columns:    []string{"name", "email", "phone", "company", "status", "notes"},
	hasUpdated: true,
	values: func(r remote.ContactRow) ([]any, error) {
		notes, err := encodeEntries(r.Notes)
		if err != nil {
			return nil, err
		}
		return []any{r.Name, r.Email, r.Phone, r.Company, r.Status, notes}, nil
	},
	scan: func(s rowScanner) (remote.ContactRow, error) {
		var (
			r     remote.ContactRow
			notes []byte
		)
		err := s.Scan(&r.ID, &r.UserID, &r.Name, &r.Email, &r.Phone, &r.Company, &r.Status, &notes, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return r, err
		}
		r.Notes, err = decodeEntries(notes)
		return r, err
	},
}

var memberTable = table[remote.MemberRow]{
	name:       "members",
	columns:    []string{"name", "email", "role", "avatar_url", "status"},
	hasUpdated: true,
	values: func(r remote.MemberRow) ([]any, error) {
		return []any{r.Name, r.Email, r.Role, r.AvatarURL, r.Status}, nil
	},
	scan: func(s rowScanner) (remote.MemberRow, error) {
		var r remote.MemberRow
		err := s.Scan(&r.ID, &r.UserID, &r.Name, &r.Email, &r.Role, &r.AvatarURL, &r.Status, &r.CreatedAt, &r.UpdatedAt)
		return r, err
	},
}

var messageTable = table[remote.MessageRow]{
	name:    "messages",
	columns: []string{"author", "content", "is_edited", "is_deleted", "deleted_at"},
	values: func(r remote.MessageRow) ([]any, error) {
		content := r.Content
		if r.IsDeleted {
			content = ""
		}
		var deletedAt sql.NullTime
		if r.IsDeleted && r.DeletedAt != nil {
			deletedAt = sql.NullTime{Time: *r.DeletedAt, Valid: true}
		}
		return []any{r.Author, content, r.IsEdited, r.IsDeleted, deletedAt}, nil
	},
	scan: func(s rowScanner) (remote.MessageRow, error) {
		var (
			r         remote.MessageRow
			deletedAt sql.NullTime
		)
		err := s.Scan(&r.ID, &r.UserID, &r.Author, &r.Content, &r.IsEdited, &r.IsDeleted, &deletedAt, &r.CreatedAt)
		if deletedAt.Valid {
			r.DeletedAt = &deletedAt.Time
		}
		return r, err
	},
}

func encodeEntries(entries []remote.EntryRow) ([]byte, error) {
	if entries == nil {
		entries = []remote.EntryRow{}
	}
	return json.Marshal(entries)
}

func decodeEntries(raw []byte) ([]remote.EntryRow, error) {
	out := []remote.EntryRow{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
