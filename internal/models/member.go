package models

import (
	"strings"
	"time"
)

// Presence is whether a team member is currently connected.
type Presence string

const (
	Online  Presence = "online"
	Offline Presence = "offline"
)

// TeamMember is an entry of the team roster.
type TeamMember struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	// Avatar is a URL or asset reference; empty means a generated avatar.
	Avatar    string    `json:"avatar"`
	Status    Presence  `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m TeamMember) Key() string { return m.ID }

func (m TeamMember) WithKey(id string) TeamMember {
	m.ID = id
	return m
}

// Validate requires a name and an email.
func (m TeamMember) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return required("name")
	}
	if strings.TrimSpace(m.Email) == "" {
		return required("email")
	}
	if m.Status != "" && m.Status != Online && m.Status != Offline {
		return &ValidationError{Field: "status", Reason: "must be online or offline"}
	}
	return nil
}

func (m TeamMember) Prepare(id string, now time.Time) TeamMember {
	m.ID = id
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	if m.Status == "" {
		m.Status = Offline
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	return m
}

func (m TeamMember) Touch(now time.Time) TeamMember {
	m.UpdatedAt = now
	return m
}

// MemberPatch carries the roster fields an update changes.
type MemberPatch struct {
	Name   *string
	Email  *string
	Role   *string
	Avatar *string
	Status *Presence
}

func (p MemberPatch) Apply(m TeamMember) TeamMember {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Email != nil {
		m.Email = *p.Email
	}
	if p.Role != nil {
		m.Role = *p.Role
	}
	if p.Avatar != nil {
		m.Avatar = *p.Avatar
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	return m
}
