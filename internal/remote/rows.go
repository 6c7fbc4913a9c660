package remote

import "time"

// EntryRow is an embedded comment or note as stored remotely.
type EntryRow struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskRow is the remote shape of a task.
type TaskRow struct {
	ID          string     `json:"id,omitempty"`
	UserID      string     `json:"user_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Assignee    string     `json:"assignee"`
	DueDate     *string    `json:"due_date"`
	Comments    []EntryRow `json:"comments"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (r TaskRow) RowID() string      { return r.ID }
func (r TaskRow) Created() time.Time { return r.CreatedAt }
func (r TaskRow) Assign(id, owner string, created, updated time.Time) TaskRow {
	r.ID, r.UserID, r.CreatedAt, r.UpdatedAt = id, owner, created, updated
	return r
}

// ContactRow is the remote shape of a contact.
type ContactRow struct {
	ID        string     `json:"id,omitempty"`
	UserID    string     `json:"user_id,omitempty"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Company   string     `json:"company"`
	Status    string     `json:"status"`
	Notes     []EntryRow `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (r ContactRow) RowID() string      { return r.ID }
func (r ContactRow) Created() time.Time { return r.CreatedAt }
func (r ContactRow) Assign(id, owner string, created, updated time.Time) ContactRow {
	r.ID, r.UserID, r.CreatedAt, r.UpdatedAt = id, owner, created, updated
	return r
}

// MemberRow is the remote shape of a team member.
type MemberRow struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatar_url"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r MemberRow) RowID() string      { return r.ID }
func (r MemberRow) Created() time.Time { return r.CreatedAt }
func (r MemberRow) Assign(id, owner string, created, updated time.Time) MemberRow {
	r.ID, r.UserID, r.CreatedAt, r.UpdatedAt = id, owner, created, updated
	return r
}

// MessageRow is the remote shape of a chat message. Messages carry only a
// creation time; edits are flagged, not timestamped.
type MessageRow struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	IsEdited  bool      `json:"is_edited"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	// DeletedAt is set by the server when the message becomes a tombstone.
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func (r MessageRow) RowID() string      { return r.ID }
func (r MessageRow) Created() time.Time { return r.CreatedAt }

// Assign keeps a client-supplied creation time, so a message is ordered by
// when it was written rather than when it reached the store.
func (r MessageRow) Assign(id, owner string, created, _ time.Time) MessageRow {
	r.ID, r.UserID = id, owner
	if r.CreatedAt.IsZero() {
		r.CreatedAt = created
	}
	return r
}
