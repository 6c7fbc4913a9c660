// Package shell is the interactive front end of the client: it turns typed
// commands into actions for the sync core and prints the resulting state.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/atinyakov/teamsync/internal/client/state"
	"github.com/atinyakov/teamsync/internal/models"
)

// Dispatcher is the part of storage.Store the shell drives.
type Dispatcher interface {
	Dispatch(state.Action) error
	Snapshot() state.State
	Wait()
}

// Refresher reloads the workspace on demand.
type Refresher interface {
	Refresh(ctx context.Context) error
}

const help = `Available commands:
  tasks | contacts | members | chat     list a collection
  add task|contact|member               create a record
  edit task|contact|member <id>         change a record
  delete task|contact|member <id>       delete a record
  move <task-id> <todo|doing|done>      change a task's status
  comment <task-id> <text>              comment on a task
  note <contact-id> <text>              add a note to a contact
  presence <member-id> <online|offline> set a member's presence
  say <text>                            send a chat message
  reword <message-id> <text>            edit a chat message
  unsay <message-id>                    delete a chat message
  typing [users...]                     set who is typing
  errors | clear                        show or clear the error log
  status                                show unconfirmed work and last sync
  refresh | wait | help | exit`

// Shell reads commands from in and writes to out.
type Shell struct {
	store  Dispatcher
	loader Refresher
	in     *bufio.Scanner
	out    io.Writer
	author string
}

// New returns a shell acting as author.
func New(store Dispatcher, loader Refresher, in io.Reader, out io.Writer, author string) *Shell {
	return &Shell{store: store, loader: loader, in: bufio.NewScanner(in), out: out, author: author}
}

// Run reads commands until exit, end of input or ctx is done.
func (s *Shell) Run(ctx context.Context) {
	for ctx.Err() == nil {
		fmt.Fprint(s.out, "teamsync> ")
		if !s.in.Scan() {
			return
		}
		args := strings.Fields(s.in.Text())
		if len(args) == 0 {
			continue
		}
		if !s.Exec(ctx, args) {
			return
		}
	}
}

// Exec runs one command and reports whether the shell should go on.
func (s *Shell) Exec(ctx context.Context, args []string) bool {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "help":
		fmt.Fprintln(s.out, help)
	case "tasks":
		s.printTasks()
	case "contacts":
		s.printContacts()
	case "members":
		s.printMembers()
	case "chat":
		s.printChat()
	case "add":
		if !s.need(rest, 1, "add task|contact|member") {
			break
		}
		switch rest[0] {
		case "task":
			s.dispatch(state.CreateTask(PromptForTask(s.in, s.out)))
		case "contact":
			s.dispatch(state.CreateContact(PromptForContact(s.in, s.out)))
		case "member":
			s.dispatch(state.CreateMember(PromptForMember(s.in, s.out)))
		default:
			fmt.Fprintln(s.out, "Usage: add task|contact|member")
		}
	case "edit":
		if !s.need(rest, 2, "edit task|contact|member <id>") {
			break
		}
		switch rest[0] {
		case "task":
			s.dispatch(state.UpdateTask(rest[1], PromptTaskEdit(s.in, s.out)))
		case "contact":
			s.dispatch(state.UpdateContact(rest[1], PromptContactEdit(s.in, s.out)))
		case "member":
			s.dispatch(state.UpdateMember(rest[1], PromptMemberEdit(s.in, s.out)))
		default:
			fmt.Fprintln(s.out, "Usage: edit task|contact|member <id>")
		}
	case "delete":
		if !s.need(rest, 2, "delete task|contact|member <id>") {
			break
		}
		switch rest[0] {
		case "task":
			s.dispatch(state.DeleteTask(rest[1]))
		case "contact":
			s.dispatch(state.DeleteContact(rest[1]))
		case "member":
			s.dispatch(state.DeleteMember(rest[1]))
		default:
			fmt.Fprintln(s.out, "Usage: delete task|contact|member <id>")
		}
	case "move":
		if s.need(rest, 2, "move <task-id> <todo|doing|done>") {
			status := models.TaskStatus(rest[1])
			s.dispatch(state.UpdateTask(rest[0], models.TaskPatch{Status: &status}))
		}
	case "comment":
		if s.need(rest, 2, "comment <task-id> <text>") {
			s.dispatch(state.AddComment(rest[0], strings.Join(rest[1:], " "), s.author))
		}
	case "note":
		if s.need(rest, 2, "note <contact-id> <text>") {
			s.dispatch(state.AddNote(rest[0], strings.Join(rest[1:], " "), s.author))
		}
	case "presence":
		if s.need(rest, 2, "presence <member-id> <online|offline>") {
			p := models.Presence(rest[1])
			s.dispatch(state.UpdateMember(rest[0], models.MemberPatch{Status: &p}))
		}
	case "say":
		if s.need(rest, 1, "say <text>") {
			s.dispatch(state.SendMessage(s.author, strings.Join(rest, " ")))
		}
	case "reword":
		if s.need(rest, 2, "reword <message-id> <text>") {
			s.dispatch(state.EditMessage(rest[0], strings.Join(rest[1:], " ")))
		}
	case "unsay":
		if s.need(rest, 1, "unsay <message-id>") {
			s.dispatch(state.DeleteMessage(rest[0]))
		}
	case "typing":
		s.dispatch(state.SetTyping(rest))
	case "errors":
		s.printErrors()
	case "status":
		s.printStatus()
	case "clear":
		s.dispatch(state.ClearError())
	case "refresh":
		if err := s.loader.Refresh(ctx); err != nil {
			fmt.Fprintln(s.out, "Refresh failed:", err)
		}
	case "wait":
		s.store.Wait()
	case "exit":
		fmt.Fprintln(s.out, "Bye")
		return false
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
	return true
}

func (s *Shell) need(args []string, n int, usage string) bool {
	if len(args) < n {
		fmt.Fprintln(s.out, "Usage:", usage)
		return false
	}
	return true
}

func (s *Shell) dispatch(a state.Action) {
	if err := s.store.Dispatch(a); err != nil {
		fmt.Fprintln(s.out, "Rejected:", err)
	}
}

// marker flags records whose create has not been confirmed yet.
func marker(st state.State, id string) string {
	if st.Pending(id) {
		return "*"
	}
	return ""
}

func (s *Shell) table(header string, rows func(w io.Writer)) {
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, header)
	rows(w)
	_ = w.Flush()
}

func (s *Shell) printTasks() {
	st := s.store.Snapshot()
	s.table("ID\tSTATUS\tTITLE\tASSIGNEE\tDUE\tCOMMENTS", func(w io.Writer) {
		for _, t := range st.Tasks {
			fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t%s\t%d\n", t.ID, marker(st, t.ID), t.Status, t.Title, t.Assignee, t.DueDate, len(t.Comments))
		}
	})
}

func (s *Shell) printContacts() {
	st := s.store.Snapshot()
	s.table("ID\tSTATUS\tNAME\tEMAIL\tCOMPANY\tNOTES", func(w io.Writer) {
		for _, c := range st.Contacts {
			fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t%s\t%d\n", c.ID, marker(st, c.ID), c.Status, c.Name, c.Email, c.Company, len(c.Notes))
		}
	})
}

func (s *Shell) printMembers() {
	st := s.store.Snapshot()
	s.table("ID\tSTATUS\tNAME\tEMAIL\tROLE", func(w io.Writer) {
		for _, m := range st.Members {
			fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t%s\n", m.ID, marker(st, m.ID), m.Status, m.Name, m.Email, m.Role)
		}
	})
}

func (s *Shell) printChat() {
	st := s.store.Snapshot()
	for _, m := range st.Messages {
		content := m.Content
		switch {
		case m.Deleted:
			content = "(message deleted)"
		case m.Edited:
			content += " (edited)"
		}
		fmt.Fprintf(s.out, "[%s] %s%s %s: %s\n", m.Timestamp.Format("15:04"), m.ID, marker(st, m.ID), m.Author, content)
	}
	if len(st.TypingUsers) > 0 {
		fmt.Fprintf(s.out, "%s typing...\n", strings.Join(st.TypingUsers, ", "))
	}
}

func (s *Shell) printStatus() {
	st := s.store.Snapshot()
	fmt.Fprintln(s.out, "Pending creates:", st.PendingCount())
	if st.LastSync.IsZero() {
		fmt.Fprintln(s.out, "Last sync: never")
	} else {
		fmt.Fprintln(s.out, "Last sync:", st.LastSync.Format("15:04:05"))
	}
	fmt.Fprintln(s.out, "Errors:", len(st.Errors))
}

func (s *Shell) printErrors() {
	st := s.store.Snapshot()
	if st.LoadError != "" {
		fmt.Fprintln(s.out, "Load error:", st.LoadError)
	}
	if len(st.Errors) == 0 {
		fmt.Fprintln(s.out, "No errors")
		return
	}
	for _, e := range st.Errors {
		fmt.Fprintf(s.out, "%s  %s\n", e.Time.Format("15:04:05"), e.Message)
	}
}
