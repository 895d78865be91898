package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sh3r4rd/file_analysis/internal/model"
	"github.com/sh3r4rd/file_analysis/internal/observability"
	"github.com/sh3r4rd/file_analysis/internal/storage"
)

// UploadAuthorizer issues single-object write capabilities. It keeps no
// state: everything about a submission lives in its object key.
type UploadAuthorizer struct {
	store         storage.ObjectStore
	ttl           time.Duration
	maxSize       int64
	now           func() time.Time
	newSubmission func(fileName, contentType string) model.Submission
	observer      observability.Observer
	logger        *observability.Logger
}

// AuthorizerOption customizes an UploadAuthorizer.
type AuthorizerOption func(*UploadAuthorizer)

// WithTTL sets how long an upload URL stays valid.
func WithTTL(ttl time.Duration) AuthorizerOption {
	return func(a *UploadAuthorizer) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithMaxUploadSize caps the declared file size a client may request.
func WithMaxUploadSize(n int64) AuthorizerOption {
	return func(a *UploadAuthorizer) { a.maxSize = n }
}

// WithClock overrides the time source for capability expiry.
func WithClock(now func() time.Time) AuthorizerOption {
	return func(a *UploadAuthorizer) { a.now = now }
}

// WithSubmissionFactory overrides correlation id generation.
func WithSubmissionFactory(fn func(fileName, contentType string) model.Submission) AuthorizerOption {
	return func(a *UploadAuthorizer) { a.newSubmission = fn }
}

// WithAuthorizerObserver reports authorization metrics to obs.
func WithAuthorizerObserver(obs observability.Observer) AuthorizerOption {
	return func(a *UploadAuthorizer) { a.observer = obs }
}

// WithAuthorizerLogger sets the logger.
func WithAuthorizerLogger(l *observability.Logger) AuthorizerOption {
	return func(a *UploadAuthorizer) { a.logger = l }
}

// NewUploadAuthorizer builds an authorizer over store.
func NewUploadAuthorizer(store storage.ObjectStore, opts ...AuthorizerOption) *UploadAuthorizer {
	a := &UploadAuthorizer{
		store:         store,
		ttl:           model.PresignedURLTTL,
		maxSize:       model.MaxFileSizeBytes,
		now:           time.Now,
		newSubmission: model.NewSubmission,
		observer:      observability.NopObserver(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = observability.OrNop(a.logger).Component("authorizer")
	return a
}

// Authorize validates req and returns a presigned upload URL together with
// the fileId the client will poll with.
func (a *UploadAuthorizer) Authorize(ctx context.Context, req model.UploadRequest) (resp model.UploadResponse, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "authorize", attribute.String("file.name", req.FileName))
	defer func() {
		observability.EndSpan(span, err)
		a.observer.RecordAuthorization(time.Since(start), err)
	}()

	if err := req.Validate(a.maxSize); err != nil {
		return model.UploadResponse{}, err
	}
	fileName, err := model.SanitizeFileName(req.FileName)
	if err != nil {
		return model.UploadResponse{}, err
	}
	contentType := strings.TrimSpace(req.ContentType)

	sub := a.newSubmission(fileName, contentType)
	capability := model.Capability{
		ResourceKey:        sub.RawObjectKey,
		Expiry:             a.now().Add(a.ttl),
		AllowedContentType: contentType,
	}

	uploadURL, err := a.store.PresignPut(ctx, capability)
	if err != nil {
		a.logger.WithContext(ctx).Error("capability issuance failed", "fileId", sub.CorrelationID, "error", err)
		return model.UploadResponse{}, &AuthorizationFailedError{Err: err}
	}

	a.logger.WithContext(ctx).Info("upload authorized",
		"fileId", sub.CorrelationID,
		"key", sub.RawObjectKey,
		"contentType", contentType,
	)
	return model.UploadResponse{
		FileID:    sub.CorrelationID,
		UploadURL: uploadURL,
		ExpiresIn: int(a.ttl.Seconds()),
	}, nil
}
