package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/teamsync/internal/middleware"
	"github.com/atinyakov/teamsync/internal/remote"
)

// ResourceService defines the record operations of one collection.
type ResourceService[R any] interface {
	List(ctx context.Context, userID string) ([]R, error)
	Create(ctx context.Context, userID string, row R) (R, error)
	Update(ctx context.Context, userID, id string, row R) (R, error)
	Delete(ctx context.Context, userID, id string) error
}

// ResourceHandler serves one collection over REST.
type ResourceHandler[R any] struct {
	Service ResourceService[R]
}

// List handles GET /api/{collection}.
func (h *ResourceHandler[R]) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.List(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if rows == nil {
		rows = []R{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// Create handles POST /api/{collection}.
func (h *ResourceHandler[R]) Create(w http.ResponseWriter, r *http.Request) {
	var row R
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		writeError(w, http.StatusBadRequest, "invalid", "invalid body")
		return
	}
	stored, err := h.Service.Create(r.Context(), middleware.GetUserIDFromContext(r.Context()), row)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// Update handles PUT /api/{collection}/{id}.
func (h *ResourceHandler[R]) Update(w http.ResponseWriter, r *http.Request) {
	var row R
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		writeError(w, http.StatusBadRequest, "invalid", "invalid body")
		return
	}
	id := chi.URLParam(r, "id")
	stored, err := h.Service.Update(r.Context(), middleware.GetUserIDFromContext(r.Context()), id, row)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// Delete handles DELETE /api/{collection}/{id}.
func (h *ResourceHandler[R]) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Service.Delete(r.Context(), middleware.GetUserIDFromContext(r.Context()), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ResourceHandler[R]) mount(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// BoardHandler serves the four workspace collections.
type BoardHandler struct {
	Tasks    *ResourceHandler[remote.TaskRow]
	Contacts *ResourceHandler[remote.ContactRow]
	Members  *ResourceHandler[remote.MemberRow]
	Messages *ResourceHandler[remote.MessageRow]
}

// NewBoardHandler wraps the collection services in handlers.
func NewBoardHandler(
	tasks ResourceService[remote.TaskRow],
	contacts ResourceService[remote.ContactRow],
	members ResourceService[remote.MemberRow],
	messages ResourceService[remote.MessageRow],
) *BoardHandler {
	return &BoardHandler{
		Tasks:    &ResourceHandler[remote.TaskRow]{Service: tasks},
		Contacts: &ResourceHandler[remote.ContactRow]{Service: contacts},
		Members:  &ResourceHandler[remote.MemberRow]{Service: members},
		Messages: &ResourceHandler[remote.MessageRow]{Service: messages},
	}
}

// unknownCollection answers requests for collections the server does not
// provision, so clients can treat them as empty.
func unknownCollection(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "schema_missing", "unknown collection "+chi.URLParam(r, "collection"))
}
