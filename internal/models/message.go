package models

import (
	"strings"
	"time"
)

// ChatMessage is a line in the team chat. Deleted messages stay in the
// collection as tombstones: content cleared, identity kept.
type ChatMessage struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Edited    bool      `json:"edited"`
	Deleted   bool      `json:"deleted"`
}

func (m ChatMessage) Key() string { return m.ID }

func (m ChatMessage) WithKey(id string) ChatMessage {
	m.ID = id
	return m
}

// Validate requires an author and, unless the message is a tombstone,
// non-blank content.
func (m ChatMessage) Validate() error {
	if strings.TrimSpace(m.Author) == "" {
		return required("author")
	}
	if !m.Deleted && strings.TrimSpace(m.Content) == "" {
		return required("content")
	}
	return nil
}

func (m ChatMessage) Prepare(id string, now time.Time) ChatMessage {
	m.ID = id
	m.Content = strings.TrimSpace(m.Content)
	if m.Timestamp.IsZero() {
		m.Timestamp = now
	}
	m.Edited = false
	m.Deleted = false
	return m
}

// Touch is a no-op: a message keeps its original timestamp when edited.
func (m ChatMessage) Touch(time.Time) ChatMessage { return m }

func (m ChatMessage) Tombstone() ChatMessage {
	m.Content = ""
	m.Deleted = true
	return m
}

func (m ChatMessage) IsTombstone() bool { return m.Deleted }

// MessagePatch edits the content of a message. A tombstone is left as is.
type MessagePatch struct {
	Content *string
}

func (p MessagePatch) Apply(m ChatMessage) ChatMessage {
	if m.Deleted {
		return m
	}
	if p.Content != nil && *p.Content != m.Content {
		m.Content = *p.Content
		m.Edited = true
	}
	return m
}
