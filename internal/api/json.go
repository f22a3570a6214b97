package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/minato/gyotaku/internal/apperr"
)

// envelope is the discriminated result union every endpoint returns:
// {"success":true,"data":...} or {"success":false,"error":{...}}.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
	Details any         `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, envelope{Success: true, Data: v})
}

func writeError(w http.ResponseWriter, status int, code apperr.Code, message string, details any) {
	writeJSON(w, status, envelope{Success: false, Error: &errorBody{Code: code, Message: message, Details: details}})
}

// writeAppError maps an error to the envelope with an appropriate status.
func writeAppError(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		writeError(w, statusForCode(ae.Code), ae.Code, ae.Message, ae.Details)
		return
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "not found", nil)
	case errors.Is(err, apperr.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", "conflict", nil)
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "ALREADY_EXISTS", "already exists", nil)
	default:
		slog.Error("internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}

func statusForCode(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeMigrationNotFound:
		return http.StatusNotFound
	case apperr.CodeRollbackNotSupported:
		return http.StatusConflict
	case apperr.CodeSchemaCompatibility:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
