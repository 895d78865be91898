package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sh3r4rd/file_analysis/internal/model"
	"github.com/sh3r4rd/file_analysis/internal/observability"
	"github.com/sh3r4rd/file_analysis/internal/storage"
)

// ObjectHandler accepts direct uploads to presigned URLs issued by a
// MemoryStore, playing the part of the bucket endpoint.
type ObjectHandler struct {
	store  *storage.MemoryStore
	prefix string
	logger *observability.Logger
}

// NewObjectHandler serves keys below prefix (for example "/objects/").
func NewObjectHandler(store *storage.MemoryStore, prefix string, logger *observability.Logger) *ObjectHandler {
	return &ObjectHandler{store: store, prefix: prefix, logger: observability.OrNop(logger).Component("object_handler")}
}

// Put handles PUT {prefix}{key}?expires=&contentType=&signature=.
func (h *ObjectHandler) Put(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, h.prefix)
	if key == "" || key == r.URL.Path {
		writeError(w, http.StatusNotFound, model.ErrCodeNotFound, "no such object")
		return
	}

	if err := h.store.VerifyPut(key, r.URL.Query(), r.Header.Get("Content-Type")); err != nil {
		h.logger.WithContext(r.Context()).Warn("rejected upload", "key", key, "error", err)
		writeError(w, http.StatusForbidden, model.ErrCodeAuthorizationFailed, err.Error())
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.store.MaxSize()))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, model.ErrCodeValidation, "file exceeds maximum upload size")
			return
		}
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "could not read request body")
		return
	}

	if err := h.store.Put(r.Context(), key, data, r.Header.Get("Content-Type")); err != nil {
		h.logger.WithContext(r.Context()).Error("object write failed", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternal, "internal error")
		return
	}
	w.WriteHeader(http.StatusOK)
}
