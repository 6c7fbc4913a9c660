package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/atinyakov/teamsync/internal/models"
)

func ask(in *bufio.Scanner, out io.Writer, label string) string {
	fmt.Fprintf(out, "%s: ", label)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

// keep returns nil for an empty answer so the field is left unchanged.
func keep(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// PromptForTask reads a new task from in.
func PromptForTask(in *bufio.Scanner, out io.Writer) models.Task {
	return models.Task{
		Title:       ask(in, out, "Enter title"),
		Description: ask(in, out, "Enter description"),
		Assignee:    ask(in, out, "Enter assignee"),
		DueDate:     ask(in, out, "Enter due date (YYYY-MM-DD, optional)"),
	}
}

// PromptTaskEdit reads the task fields to change; empty answers keep the
// current value.
func PromptTaskEdit(in *bufio.Scanner, out io.Writer) models.TaskPatch {
	fmt.Fprintln(out, "Leave a field empty to keep it.")
	p := models.TaskPatch{
		Title:       keep(ask(in, out, "New title")),
		Description: keep(ask(in, out, "New description")),
		Assignee:    keep(ask(in, out, "New assignee")),
		DueDate:     keep(ask(in, out, "New due date")),
	}
	if s := ask(in, out, "New status (todo/doing/done)"); s != "" {
		status := models.TaskStatus(s)
		p.Status = &status
	}
	return p
}

// PromptForContact reads a new contact from in.
func PromptForContact(in *bufio.Scanner, out io.Writer) models.Contact {
	return models.Contact{
		Name:    ask(in, out, "Enter name"),
		Email:   ask(in, out, "Enter email"),
		Phone:   ask(in, out, "Enter phone"),
		Company: ask(in, out, "Enter company"),
	}
}

// PromptContactEdit reads the contact fields to change.
func PromptContactEdit(in *bufio.Scanner, out io.Writer) models.ContactPatch {
	fmt.Fprintln(out, "Leave a field empty to keep it.")
	p := models.ContactPatch{
		Name:    keep(ask(in, out, "New name")),
		Email:   keep(ask(in, out, "New email")),
		Phone:   keep(ask(in, out, "New phone")),
		Company: keep(ask(in, out, "New company")),
	}
	if s := ask(in, out, "New status (Lead/Prospect/Client/Inactive)"); s != "" {
		status := models.ContactStatus(s)
		p.Status = &status
	}
	return p
}

// PromptForMember reads a new team member from in.
func PromptForMember(in *bufio.Scanner, out io.Writer) models.TeamMember {
	return models.TeamMember{
		Name:  ask(in, out, "Enter name"),
		Email: ask(in, out, "Enter email"),
		Role:  ask(in, out, "Enter role"),
	}
}

// PromptMemberEdit reads the roster fields to change.
func PromptMemberEdit(in *bufio.Scanner, out io.Writer) models.MemberPatch {
	fmt.Fprintln(out, "Leave a field empty to keep it.")
	return models.MemberPatch{
		Name:   keep(ask(in, out, "New name")),
		Email:  keep(ask(in, out, "New email")),
		Role:   keep(ask(in, out, "New role")),
		Avatar: keep(ask(in, out, "New avatar URL")),
	}
}
