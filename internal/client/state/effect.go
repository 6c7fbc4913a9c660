package state

import (
	"github.com/atinyakov/teamsync/internal/models"
	"github.com/atinyakov/teamsync/internal/remote"
)

// Effect describes one remote call the coordinator must make after a
// transition. Effects carry everything needed to build the reconciliation
// action from the call's outcome.
type Effect struct {
	Kind models.Kind
	// Op is remote.OpInsert, remote.OpUpdate or remote.OpDelete.
	Op remote.Op
	// ID is the placeholder id for inserts and the server id otherwise.
	ID string
	// Record is the record to send (inserts and updates).
	Record any
	// Intent is the user op behind the call, used to word failures.
	Intent Op
	// Snapshot and Index describe the record before the optimistic change.
	Snapshot any
	Index    int
}

// Failed returns the reconciliation action for a permanent failure of e.
func (e Effect) Failed(err error) Action {
	switch e.Op {
	case remote.OpInsert:
		return CreateFailed(e.Kind, e.ID, err)
	case remote.OpDelete:
		return DeleteFailed(e.Kind, e.ID, Failure{Err: err, Intent: e.Intent, Snapshot: e.Snapshot, Index: e.Index})
	default:
		return UpdateFailed(e.Kind, e.ID, Failure{Err: err, Intent: e.Intent, Snapshot: e.Snapshot, Index: e.Index})
	}
}

// Succeeded returns the reconciliation action for a successful call; rec is
// the canonical record returned by the store, nil for deletes.
func (e Effect) Succeeded(rec any) Action {
	switch e.Op {
	case remote.OpInsert:
		return CreateConfirmed(e.Kind, e.ID, rec)
	case remote.OpDelete:
		return DeleteConfirmed(e.Kind, e.ID)
	default:
		return UpdateConfirmed(e.Kind, e.ID, rec)
	}
}

func verb(op Op) string {
	switch op {
	case OpCreate:
		return "add"
	case OpDelete:
		return "delete"
	case OpAppendEntry:
		return "annotate"
	default:
		return "update"
	}
}
