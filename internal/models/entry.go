package models

import (
	"strings"
	"time"
)

// Entry is an append-only annotation embedded in a parent record.
type Entry struct {
	// ID is generated locally by NewEntryID.
	ID string `json:"id"`
	// Author is the display name of whoever wrote the entry.
	Author string `json:"author"`
	// Content is the entry text.
	Content string `json:"content"`
	// Timestamp is when the entry was written.
	Timestamp time.Time `json:"timestamp"`
}

// Comment is an entry attached to a task.
type Comment = Entry

// Note is an entry attached to a contact.
type Note = Entry

// NewEntry builds an entry from user input. Content is trimmed and must not
// be blank.
func NewEntry(content, author string, now time.Time) (Entry, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Entry{}, required("content")
	}
	return Entry{
		ID:        NewEntryID(now),
		Author:    author,
		Content:   content,
		Timestamp: now,
	}, nil
}

func appendEntry(list []Entry, e Entry) []Entry {
	out := make([]Entry, 0, len(list)+1)
	out = append(out, list...)
	return append(out, e)
}
