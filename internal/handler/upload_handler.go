package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sh3r4rd/file_analysis/internal/model"
	"github.com/sh3r4rd/file_analysis/internal/observability"
)

const maxRequestBody = 64 << 10

// Authorizer issues upload capabilities.
type Authorizer interface {
	Authorize(ctx context.Context, req model.UploadRequest) (model.UploadResponse, error)
}

// UploadHandler serves capability requests.
type UploadHandler struct {
	auth   Authorizer
	logger *observability.Logger
}

// NewUploadHandler builds an UploadHandler over auth.
func NewUploadHandler(auth Authorizer, logger *observability.Logger) *UploadHandler {
	return &UploadHandler{auth: auth, logger: observability.OrNop(logger).Component("upload_handler")}
}

// Create handles POST /upload.
func (h *UploadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.UploadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "request body must be a JSON object")
		return
	}

	resp, err := h.auth.Authorize(r.Context(), req)
	if err != nil {
		h.logger.WithContext(r.Context()).Warn("upload request rejected", "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
