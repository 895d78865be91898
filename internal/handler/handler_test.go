package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sh3r4rd/file_analysis/internal/model"
	"github.com/sh3r4rd/file_analysis/internal/service"
	"github.com/sh3r4rd/file_analysis/internal/storage"
)

const testFileID = "2b1f0f0e-4c2a-4c8e-9a53-0d2f3b7d1a11"

type fakeAuthorizer struct {
	resp model.UploadResponse
	err  error
	got  model.UploadRequest
}

func (f *fakeAuthorizer) Authorize(_ context.Context, req model.UploadRequest) (model.UploadResponse, error) {
	f.got = req
	return f.resp, f.err
}

type fakeResolver struct {
	rec   model.ResultRecord
	ready bool
	err   error
}

func (f fakeResolver) Resolve(context.Context, string) (model.ResultRecord, bool, error) {
	return f.rec, f.ready, f.err
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestUploadHandlerCreate(t *testing.T) {
	auth := &fakeAuthorizer{resp: model.UploadResponse{FileID: testFileID, UploadURL: "https://bucket/x", ExpiresIn: 300}}
	h := NewUploadHandler(auth, nil)

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{"fileName":"a.csv","contentType":"text/csv"}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var got model.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, auth.resp, got)
	assert.Equal(t, "a.csv", auth.got.FileName)
}

func TestUploadHandlerErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{"malformed json", `{"fileName":`, nil, http.StatusBadRequest, model.ErrCodeValidation},
		{"validation", `{}`, &model.ValidationError{Field: "fileName", Reason: "is required"}, http.StatusBadRequest, model.ErrCodeValidation},
		{"authorization", `{}`, &service.AuthorizationFailedError{Err: errors.New("no creds")}, http.StatusInternalServerError, model.ErrCodeAuthorizationFailed},
		{"unexpected", `{}`, errors.New("boom"), http.StatusInternalServerError, model.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewUploadHandler(&fakeAuthorizer{err: tt.err}, nil)
			rec := httptest.NewRecorder()
			h.Create(rec, httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Error)
			assert.NotContains(t, body.Message, "no creds")
		})
	}
}

func serveResult(h *ResultHandler, fileID string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/result/{fileId}", h.Get)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/result/"+fileID, nil))
	return rec
}

func TestResultHandlerNotReady(t *testing.T) {
	rec := serveResult(NewResultHandler(fakeResolver{}), testFileID)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	var body model.PendingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, model.PendingResponse{FileID: testFileID, Ready: false}, body)
}

func TestResultHandlerTerminal(t *testing.T) {
	for name, record := range map[string]model.ResultRecord{
		"processed": model.NewCSVResult(testFileID, []string{"a"}, 1),
		"error":     model.NewErrorResult(testFileID, model.FileTypeJSONL, "invalid JSONL content: line 2 is not valid JSON"),
	} {
		t.Run(name, func(t *testing.T) {
			rec := serveResult(NewResultHandler(fakeResolver{rec: record, ready: true}), testFileID)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, rec.Header().Get("Retry-After"))
			var got model.ResultRecord
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, record, got)
		})
	}
}

func TestResultHandlerErrors(t *testing.T) {
	rec := serveResult(NewResultHandler(fakeResolver{err: &model.ValidationError{Field: "fileId", Reason: "must be a UUID"}}), "nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.ErrCodeValidation, decodeError(t, rec).Error)

	rec = serveResult(NewResultHandler(fakeResolver{err: errors.New("AccessDenied: bucket policy")}), testFileID)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, model.ErrCodeInternal, body.Error)
	assert.NotContains(t, body.Message, "AccessDenied")
}

func presign(t *testing.T, store *storage.MemoryStore, key, contentType string, expiry time.Time) *url.URL {
	t.Helper()
	raw, err := store.PresignPut(context.Background(), model.Capability{
		ResourceKey:        key,
		Expiry:             expiry,
		AllowedContentType: contentType,
	})
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestObjectHandlerPut(t *testing.T) {
	now := time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC)
	store := storage.NewMemoryStore("http://localhost:8080", []byte("secret"), 16).WithClock(func() time.Time { return now })
	h := NewObjectHandler(store, "/objects/", nil)
	key := model.RawObjectKey(testFileID, "a.csv")

	var notified []string
	store.Subscribe(func(_ context.Context, k string) { notified = append(notified, k) })

	put := func(u *url.URL, contentType, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, u.RequestURI(), bytes.NewBufferString(body))
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		h.Put(rec, req)
		return rec
	}

	valid := presign(t, store, key, "text/csv", now.Add(time.Minute))

	t.Run("wrong content type", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, put(valid, "application/json", "a\n").Code)
	})
	t.Run("tampered signature", func(t *testing.T) {
		u := *valid
		q := u.Query()
		q.Set("signature", "00")
		u.RawQuery = q.Encode()
		assert.Equal(t, http.StatusForbidden, put(&u, "text/csv", "a\n").Code)
	})
	t.Run("expired", func(t *testing.T) {
		stale := presign(t, store, key, "text/csv", now)
		assert.Equal(t, http.StatusForbidden, put(stale, "text/csv", "a\n").Code)
	})
	t.Run("too large", func(t *testing.T) {
		assert.Equal(t, http.StatusRequestEntityTooLarge, put(valid, "text/csv", strings.Repeat("x", 17)).Code)
	})
	require.Empty(t, notified)

	t.Run("accepted", func(t *testing.T) {
		rec := put(valid, "text/csv", "a,b\n1,2\n")
		require.Equal(t, http.StatusOK, rec.Code)

		obj, err := store.Get(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, "a,b\n1,2\n", string(obj.Data))
		assert.Equal(t, "text/csv", obj.ContentType)
		assert.Equal(t, []string{key}, notified)
	})
}
