package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidObjectKey is returned for keys that do not follow the
// uploads/{fileId}/{name} layout.
var ErrInvalidObjectKey = errors.New("object key is not a submission upload")

// Submission identifies one file moving through the pipeline.
type Submission struct {
	CorrelationID       string
	FileName            string
	RawObjectKey        string
	DeclaredContentType string
}

// NewSubmission mints a fresh correlation id for a sanitized file name.
func NewSubmission(fileName, contentType string) Submission {
	id := uuid.NewString()
	return Submission{
		CorrelationID:       id,
		FileName:            fileName,
		RawObjectKey:        RawObjectKey(id, fileName),
		DeclaredContentType: contentType,
	}
}

// Capability is a time-boxed permission to write exactly one object. Object
// stores turn it into a transport credential such as a presigned URL.
type Capability struct {
	ResourceKey        string
	Expiry             time.Time
	AllowedContentType string
}

// Expired reports whether the capability is no longer usable at now.
func (c Capability) Expired(now time.Time) bool {
	return !now.Before(c.Expiry)
}

// RawObjectKey is where the client's bytes for fileID are written.
func RawObjectKey(fileID, fileName string) string {
	return UploadsPrefix + fileID + "/" + fileName
}

// ResultKey is where the result record for fileID is written.
func ResultKey(fileID string) string {
	return ResultsPrefix + fileID + ".json"
}

// ParseRawObjectKey recovers the correlation id and original file name from
// a raw object key.
func ParseRawObjectKey(key string) (fileID, fileName string, err error) {
	rest, ok := strings.CutPrefix(key, UploadsPrefix)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidObjectKey, key)
	}
	fileID, fileName, ok = strings.Cut(rest, "/")
	if !ok || fileName == "" || strings.Contains(fileName, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidObjectKey, key)
	}
	if !ValidFileID(fileID) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidObjectKey, key)
	}
	return fileID, fileName, nil
}

// ValidFileID reports whether id has the shape of a correlation id.
func ValidFileID(id string) bool {
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.String() == id
}
