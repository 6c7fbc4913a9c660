package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/teamsync/internal/models"
	"github.com/atinyakov/teamsync/internal/remote"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Code: code, Message: msg})
}

// writeServiceError maps a service error onto a status and error code.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case models.IsValidation(err):
		writeError(w, http.StatusBadRequest, "invalid", err.Error())
	case errors.Is(err, remote.ErrSchemaMissing):
		writeError(w, http.StatusNotFound, "schema_missing", "collection is not provisioned")
	case errors.Is(err, remote.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "record not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
