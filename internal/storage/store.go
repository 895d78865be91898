package storage

import (
	"context"
	"errors"

	"github.com/sh3r4rd/file_analysis/internal/model"
)

var (
	// ErrNotFound is returned when no object exists under a key.
	ErrNotFound = errors.New("storage: object not found")
	// ErrObjectTooLarge is returned when an object exceeds the read limit.
	ErrObjectTooLarge = errors.New("storage: object exceeds size limit")
)

// Object is a fully buffered stored object.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// ObjectStore abstracts the bucket holding raw uploads and result records so
// the pipeline stays unit testable.
type ObjectStore interface {
	// PresignPut turns a capability into a URL the client can PUT to directly.
	PresignPut(ctx context.Context, capability model.Capability) (string, error)
	Get(ctx context.Context, key string) (Object, error)
	// Put writes the whole object in one request; readers never see a partial body.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
}
