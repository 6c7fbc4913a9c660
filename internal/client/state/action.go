package state

import (
	"errors"

	"github.com/atinyakov/teamsync/internal/models"
)

// KindSession tags actions that do not address one collection.
const KindSession models.Kind = "session"

// ErrBadAction is returned for an action whose payload does not match its
// kind and op.
var ErrBadAction = errors.New("malformed action")

// Op identifies what an action does.
type Op string

// User intents.
const (
	OpCreate      Op = "create"
	OpUpdate      Op = "update"
	OpDelete      Op = "delete"
	OpAppendEntry Op = "append_entry"
	OpSetTyping   Op = "set_typing"
	OpClearError  Op = "clear_error"
)

// Reconciliation and lifecycle actions, dispatched by the coordinator.
const (
	OpCreateConfirmed Op = "create_confirmed"
	OpCreateFailed    Op = "create_failed"
	OpUpdateConfirmed Op = "update_confirmed"
	OpUpdateFailed    Op = "update_failed"
	OpDeleteConfirmed Op = "delete_confirmed"
	OpDeleteFailed    Op = "delete_failed"
	OpLoadStarted     Op = "load_started"
	OpLoadSucceeded   Op = "load_succeeded"
	OpLoadFailed      Op = "load_failed"
	OpRecordError     Op = "record_error"
)

// Action is a tagged intent: which collection, what to do, to which record,
// and with what payload.
type Action struct {
	Kind    models.Kind
	Op      Op
	ID      string
	Payload any
}

// EntryInput is the payload of OpAppendEntry.
type EntryInput struct {
	Content string
	Author  string
}

// Failure is the payload of OpUpdateFailed and OpDeleteFailed: the cause
// and what is needed to undo the optimistic change.
type Failure struct {
	Err error
	// Intent is the user op that caused the remote call.
	Intent Op
	// Snapshot is the record as it was before the optimistic change.
	Snapshot any
	// Index is where Snapshot sat in its collection; -1 if unknown.
	Index int
}

// Create returns an action creating draft in kind under a fresh
// placeholder id.
func Create(kind models.Kind, draft any) Action {
	return Action{Kind: kind, Op: OpCreate, ID: models.NewPlaceholderID(), Payload: draft}
}

// Update returns an action merging patch into record id.
func Update(kind models.Kind, id string, patch any) Action {
	return Action{Kind: kind, Op: OpUpdate, ID: id, Payload: patch}
}

// Delete returns an action deleting record id.
func Delete(kind models.Kind, id string) Action {
	return Action{Kind: kind, Op: OpDelete, ID: id}
}

func CreateTask(draft models.Task) Action { return Create(models.KindTasks, draft) }

func UpdateTask(id string, patch models.TaskPatch) Action {
	return Update(models.KindTasks, id, patch)
}

func DeleteTask(id string) Action { return Delete(models.KindTasks, id) }

// AddComment appends a comment to task taskID.
func AddComment(taskID, content, author string) Action {
	return Action{Kind: models.KindTasks, Op: OpAppendEntry, ID: taskID, Payload: EntryInput{Content: content, Author: author}}
}

func CreateContact(draft models.Contact) Action { return Create(models.KindContacts, draft) }

func UpdateContact(id string, patch models.ContactPatch) Action {
	return Update(models.KindContacts, id, patch)
}

func DeleteContact(id string) Action { return Delete(models.KindContacts, id) }

// AddNote appends a note to contact contactID.
func AddNote(contactID, content, author string) Action {
	return Action{Kind: models.KindContacts, Op: OpAppendEntry, ID: contactID, Payload: EntryInput{Content: content, Author: author}}
}

func CreateMember(draft models.TeamMember) Action { return Create(models.KindMembers, draft) }

func UpdateMember(id string, patch models.MemberPatch) Action {
	return Update(models.KindMembers, id, patch)
}

func DeleteMember(id string) Action { return Delete(models.KindMembers, id) }

// SendMessage posts a chat message.
func SendMessage(author, content string) Action {
	return Create(models.KindMessages, models.ChatMessage{Author: author, Content: content})
}

// EditMessage replaces the content of message id.
func EditMessage(id, content string) Action {
	return Update(models.KindMessages, id, models.MessagePatch{Content: &content})
}

// DeleteMessage turns message id into a tombstone.
func DeleteMessage(id string) Action { return Delete(models.KindMessages, id) }

// SetTyping replaces the list of users typing in the chat.
func SetTyping(users []string) Action {
	return Action{Kind: KindSession, Op: OpSetTyping, Payload: users}
}

// ClearError dismisses the current error; the log is kept.
func ClearError() Action {
	return Action{Kind: KindSession, Op: OpClearError}
}

// CreateConfirmed swaps placeholder for the canonical record rec.
func CreateConfirmed(kind models.Kind, placeholder string, rec any) Action {
	return Action{Kind: kind, Op: OpCreateConfirmed, ID: placeholder, Payload: rec}
}

// CreateFailed discards placeholder after a permanent create failure.
func CreateFailed(kind models.Kind, placeholder string, err error) Action {
	return Action{Kind: kind, Op: OpCreateFailed, ID: placeholder, Payload: err}
}

func UpdateConfirmed(kind models.Kind, id string, rec any) Action {
	return Action{Kind: kind, Op: OpUpdateConfirmed, ID: id, Payload: rec}
}

func UpdateFailed(kind models.Kind, id string, f Failure) Action {
	return Action{Kind: kind, Op: OpUpdateFailed, ID: id, Payload: f}
}

func DeleteConfirmed(kind models.Kind, id string) Action {
	return Action{Kind: kind, Op: OpDeleteConfirmed, ID: id}
}

func DeleteFailed(kind models.Kind, id string, f Failure) Action {
	return Action{Kind: kind, Op: OpDeleteFailed, ID: id, Payload: f}
}

func LoadStarted() Action { return Action{Kind: KindSession, Op: OpLoadStarted} }

func LoadSucceeded(c Collections) Action {
	return Action{Kind: KindSession, Op: OpLoadSucceeded, Payload: c}
}

func LoadFailed(err error) Action {
	return Action{Kind: KindSession, Op: OpLoadFailed, Payload: err}
}

// RecordError appends err to the error log.
func RecordError(err error) Action {
	return Action{Kind: KindSession, Op: OpRecordError, Payload: err}
}
