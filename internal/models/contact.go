package models

import (
	"net/mail"
	"strings"
	"time"
)

// ContactStatus is the pipeline stage of a contact.
type ContactStatus string

const (
	ContactLead     ContactStatus = "Lead"
	ContactProspect ContactStatus = "Prospect"
	ContactClient   ContactStatus = "Client"
	ContactInactive ContactStatus = "Inactive"
)

// Valid reports whether s is a known contact status.
func (s ContactStatus) Valid() bool {
	switch s {
	case ContactLead, ContactProspect, ContactClient, ContactInactive:
		return true
	}
	return false
}

// Contact is a CRM entry.
type Contact struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone"`
	Company   string        `json:"company"`
	Status    ContactStatus `json:"status"`
	Notes     []Note        `json:"notes"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (c Contact) Key() string { return c.ID }

func (c Contact) WithKey(id string) Contact {
	c.ID = id
	return c
}

// Validate requires a name; email and status are checked only when set.
func (c Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return required("name")
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return &ValidationError{Field: "email", Reason: "must be a valid address"}
		}
	}
	if c.Status != "" && !c.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "must be one of Lead, Prospect, Client, Inactive"}
	}
	return nil
}

func (c Contact) Prepare(id string, now time.Time) Contact {
	c.ID = id
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	if c.Status == "" {
		c.Status = ContactLead
	}
	if c.Notes == nil {
		c.Notes = []Note{}
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return c
}

func (c Contact) Touch(now time.Time) Contact {
	c.UpdatedAt = now
	return c
}

func (c Contact) AppendEntry(n Entry) Contact {
	c.Notes = appendEntry(c.Notes, n)
	return c
}

// ContactPatch carries the contact fields an update changes.
type ContactPatch struct {
	Name    *string
	Email   *string
	Phone   *string
	Company *string
	Status  *ContactStatus
}

func (p ContactPatch) Apply(c Contact) Contact {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Company != nil {
		c.Company = *p.Company
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	return c
}
