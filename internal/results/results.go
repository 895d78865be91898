// Package results persists and loads result records. Every write replaces the
// whole record in a single request, so a reader sees either nothing or a
// complete terminal record.
package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sh3r4rd/file_analysis/internal/model"
	"github.com/sh3r4rd/file_analysis/internal/storage"
)

// ErrNotFound means no record has been written yet; callers treat it as
// "not ready", not as a failure.
var ErrNotFound = errors.New("results: record not found")

// Store reads and writes result records keyed by fileId.
type Store interface {
	Put(ctx context.Context, rec model.ResultRecord) error
	Get(ctx context.Context, fileID string) (model.ResultRecord, error)
}

// ObjectStore keeps each record as JSON under results/{fileId}.json next to
// the raw uploads.
type ObjectStore struct {
	objects storage.ObjectStore
}

// NewObjectStore wraps an object store.
func NewObjectStore(objects storage.ObjectStore) *ObjectStore {
	return &ObjectStore{objects: objects}
}

func (s *ObjectStore) Put(ctx context.Context, rec model.ResultRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode result %s: %w", rec.FileID, err)
	}
	if err := s.objects.Put(ctx, model.ResultKey(rec.FileID), data, "application/json"); err != nil {
		return fmt.Errorf("write result %s: %w", rec.FileID, err)
	}
	return nil
}

func (s *ObjectStore) Get(ctx context.Context, fileID string) (model.ResultRecord, error) {
	obj, err := s.objects.Get(ctx, model.ResultKey(fileID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.ResultRecord{}, ErrNotFound
		}
		return model.ResultRecord{}, fmt.Errorf("read result %s: %w", fileID, err)
	}
	var rec model.ResultRecord
	if err := json.Unmarshal(obj.Data, &rec); err != nil {
		return model.ResultRecord{}, fmt.Errorf("decode result %s: %w", fileID, err)
	}
	return rec, nil
}

var _ Store = (*ObjectStore)(nil)
