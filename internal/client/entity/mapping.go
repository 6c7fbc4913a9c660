package entity

import (
	"github.com/atinyakov/teamsync/internal/models"
	"github.com/atinyakov/teamsync/internal/remote"
)

// Mapper converts between the local shape of a record and its remote row.
type Mapper[E any, R any] interface {
	ToRemote(E) R
	FromRemote(R) E
}

// TaskMapper maps tasks.
type TaskMapper struct{}

func (TaskMapper) ToRemote(t models.Task) remote.TaskRow {
	row := remote.TaskRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Assignee:    t.Assignee,
		Comments:    entriesToRemote(t.Comments),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.DueDate != "" {
		due := t.DueDate
		row.DueDate = &due
	}
	return row
}

func (TaskMapper) FromRemote(r remote.TaskRow) models.Task {
	t := models.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      models.TaskStatus(r.Status),
		Assignee:    r.Assignee,
		Comments:    entriesFromRemote(r.Comments),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.DueDate != nil {
		t.DueDate = *r.DueDate
	}
	if t.Status == "" {
		t.Status = models.TaskTodo
	}
	return t
}

// ContactMapper maps contacts.
type ContactMapper struct{}

func (ContactMapper) ToRemote(c models.Contact) remote.ContactRow {
	return remote.ContactRow{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
		Status:    string(c.Status),
		Notes:     entriesToRemote(c.Notes),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (ContactMapper) FromRemote(r remote.ContactRow) models.Contact {
	c := models.Contact{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Company:   r.Company,
		Status:    models.ContactStatus(r.Status),
		Notes:     entriesFromRemote(r.Notes),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if c.Status == "" {
		c.Status = models.ContactLead
	}
	return c
}

// MemberMapper maps team members.
type MemberMapper struct{}

func (MemberMapper) ToRemote(m models.TeamMember) remote.MemberRow {
	return remote.MemberRow{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Role:      m.Role,
		AvatarURL: m.Avatar,
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (MemberMapper) FromRemote(r remote.MemberRow) models.TeamMember {
	m := models.TeamMember{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Role:      r.Role,
		Avatar:    r.AvatarURL,
		Status:    models.Presence(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if m.Status == "" {
		m.Status = models.Offline
	}
	return m
}

// MessageMapper maps chat messages.
type MessageMapper struct{}

func (MessageMapper) ToRemote(m models.ChatMessage) remote.MessageRow {
	return remote.MessageRow{
		ID:        m.ID,
		Author:    m.Author,
		Content:   m.Content,
		IsEdited:  m.Edited,
		IsDeleted: m.Deleted,
		CreatedAt: m.Timestamp,
	}
}

func (MessageMapper) FromRemote(r remote.MessageRow) models.ChatMessage {
	m := models.ChatMessage{
		ID:        r.ID,
		Author:    r.Author,
		Content:   r.Content,
		Timestamp: r.CreatedAt,
		Edited:    r.IsEdited,
		Deleted:   r.IsDeleted,
	}
	if m.Deleted {
		m.Content = ""
	}
	return m
}

func entriesToRemote(in []models.Entry) []remote.EntryRow {
	out := make([]remote.EntryRow, 0, len(in))
	for _, e := range in {
		out = append(out, remote.EntryRow{ID: e.ID, Author: e.Author, Content: e.Content, CreatedAt: e.Timestamp})
	}
	return out
}

func entriesFromRemote(in []remote.EntryRow) []models.Entry {
	out := make([]models.Entry, 0, len(in))
	for _, e := range in {
		out = append(out, models.Entry{ID: e.ID, Author: e.Author, Content: e.Content, Timestamp: e.CreatedAt})
	}
	return out
}
