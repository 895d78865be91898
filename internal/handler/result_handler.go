package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sh3r4rd/file_analysis/internal/model"
)

// Resolver looks up terminal result records.
type Resolver interface {
	Resolve(ctx context.Context, fileID string) (model.ResultRecord, bool, error)
}

// ResultHandler serves result polls.
type ResultHandler struct {
	resolver Resolver
}

// NewResultHandler builds a ResultHandler over resolver.
func NewResultHandler(resolver Resolver) *ResultHandler {
	return &ResultHandler{resolver: resolver}
}

// Get handles GET /result/{fileId}. A record that is not written yet is
// answered with 202 and a Retry-After hint.
func (h *ResultHandler) Get(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileId")

	rec, ready, err := h.resolver.Resolve(r.Context(), fileID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !ready {
		w.Header().Set("Retry-After", strconv.Itoa(model.PollIntervalSeconds))
		writeJSON(w, http.StatusAccepted, model.PendingResponse{FileID: fileID, Ready: false})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
