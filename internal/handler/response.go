package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sh3r4rd/file_analysis/internal/model"
	"github.com/sh3r4rd/file_analysis/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// StatusFor maps a service error onto its HTTP status and wire envelope.
// Internal details never reach the client.
func StatusFor(err error) (int, model.ErrorResponse) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, model.ErrorResponse{Error: model.ErrCodeValidation, Message: verr.Error()}
	}
	var authErr *service.AuthorizationFailedError
	if errors.As(err, &authErr) {
		return http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeAuthorizationFailed,
			Message: "could not issue an upload URL, request a new one",
		}
	}
	return http.StatusInternalServerError, model.ErrorResponse{Error: model.ErrCodeInternal, Message: "internal error"}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status, body := StatusFor(err)
	writeJSON(w, status, body)
}

// Health handles GET /healthz.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
