package model

import (
	"fmt"
	"mime"
	"path"
	"strings"
)

// UploadRequest is the JSON body sent by clients to POST /upload.
type UploadRequest struct {
	FileName      string `json:"fileName"`
	ContentType   string `json:"contentType"`
	FileSizeBytes int64  `json:"fileSizeBytes,omitempty"`
}

// ValidationError reports a request that can never succeed as sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Validate checks the request against the upload constraints. maxSize <= 0
// disables the declared-size check.
func (r UploadRequest) Validate(maxSize int64) error {
	if strings.TrimSpace(r.FileName) == "" {
		return &ValidationError{Field: "fileName", Reason: "is required"}
	}
	if _, err := SanitizeFileName(r.FileName); err != nil {
		return err
	}
	if strings.TrimSpace(r.ContentType) == "" {
		return &ValidationError{Field: "contentType", Reason: "is required"}
	}
	if _, err := ParseContentType(r.ContentType); err != nil {
		return err
	}
	if r.FileSizeBytes < 0 {
		return &ValidationError{Field: "fileSizeBytes", Reason: "must not be negative"}
	}
	if maxSize > 0 && r.FileSizeBytes > maxSize {
		return &ValidationError{Field: "fileSizeBytes", Reason: fmt.Sprintf("exceeds %d byte limit", maxSize)}
	}
	return nil
}

// SanitizeFileName reduces a client-supplied name to a single path segment
// so it can be embedded in an object key.
func SanitizeFileName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	base := path.Base(name)
	if base == "." || base == ".." || base == "/" || base == "" {
		return "", &ValidationError{Field: "fileName", Reason: "is not a usable file name"}
	}
	return base, nil
}

// ParseContentType returns the media type without parameters, lower-cased.
// Only type/subtype forms are accepted.
func ParseContentType(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.Contains(mediaType, "/") {
		return "", &ValidationError{Field: "contentType", Reason: "is not a valid MIME type"}
	}
	return mediaType, nil
}
