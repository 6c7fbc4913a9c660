package models

import (
	"strings"
	"time"
)

// TaskStatus is the board column a task sits in.
type TaskStatus string

const (
	// TaskTodo is the default status of a new task.
	TaskTodo TaskStatus = "todo"
	// TaskDoing marks a task in progress.
	TaskDoing TaskStatus = "doing"
	// TaskDone marks a finished task.
	TaskDone TaskStatus = "done"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	return s == TaskTodo || s == TaskDoing || s == TaskDone
}

// DueDateLayout is the format of Task.DueDate.
const DueDateLayout = "2006-01-02"

// Task is a card on the task board.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Assignee    string     `json:"assignee"`
	// DueDate is an optional calendar date in DueDateLayout.
	DueDate   string    `json:"dueDate,omitempty"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t Task) Key() string { return t.ID }

func (t Task) WithKey(id string) Task {
	t.ID = id
	return t
}

// Validate requires a non-blank title, a known status (when set) and a
// well-formed due date (when set).
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return required("title")
	}
	if t.Status != "" && !t.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "must be one of todo, doing, done"}
	}
	if t.DueDate != "" {
		if _, err := time.Parse(DueDateLayout, t.DueDate); err != nil {
			return &ValidationError{Field: "dueDate", Reason: "must be a date in YYYY-MM-DD form"}
		}
	}
	return nil
}

func (t Task) Prepare(id string, now time.Time) Task {
	t.ID = id
	t.Title = strings.TrimSpace(t.Title)
	if t.Status == "" {
		t.Status = TaskTodo
	}
	if t.Comments == nil {
		t.Comments = []Comment{}
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	return t
}

func (t Task) Touch(now time.Time) Task {
	t.UpdatedAt = now
	return t
}

func (t Task) AppendEntry(c Entry) Task {
	t.Comments = appendEntry(t.Comments, c)
	return t
}

// TaskPatch carries the task fields an update changes; nil fields are kept.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Assignee    *string
	DueDate     *string
}

func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Assignee != nil {
		t.Assignee = *p.Assignee
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	return t
}
