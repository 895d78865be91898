package analysis

import (
	"errors"
	"path"
	"strings"

	"github.com/sh3r4rd/file_analysis/internal/model"
)

// ErrUnrecognizedFormat is returned when neither the file name nor the stored
// content type maps to a supported format.
var ErrUnrecognizedFormat = errors.New("unrecognized file format")

var extensionTypes = map[string]model.FileType{
	".csv":    model.FileTypeCSV,
	".jsonl":  model.FileTypeJSONL,
	".ndjson": model.FileTypeJSONL,
}

var contentTypes = map[string]model.FileType{
	"text/csv":                 model.FileTypeCSV,
	"application/csv":          model.FileTypeCSV,
	"application/jsonl":        model.FileTypeJSONL,
	"application/x-ndjson":     model.FileTypeJSONL,
	"application/x-jsonlines":  model.FileTypeJSONL,
	"application/jsonlines":    model.FileTypeJSONL,
	"application/x-json-lines": model.FileTypeJSONL,
}

// Classify picks the format from the file suffix, then from the content type.
// The declared content type is only a fallback; a .csv name wins over a
// mislabelled header.
func Classify(fileName, contentType string) (model.FileType, error) {
	ext := strings.ToLower(path.Ext(fileName))
	if ft, ok := extensionTypes[ext]; ok {
		return ft, nil
	}
	if contentType != "" {
		if mediaType, err := model.ParseContentType(contentType); err == nil {
			if ft, ok := contentTypes[mediaType]; ok {
				return ft, nil
			}
		}
	}
	return "", ErrUnrecognizedFormat
}

// ContentTypeFor returns the canonical content type for a recognized file
// name, or application/octet-stream.
func ContentTypeFor(fileName string) string {
	ft, err := Classify(fileName, "")
	if err != nil {
		return "application/octet-stream"
	}
	switch ft {
	case model.FileTypeCSV:
		return "text/csv"
	case model.FileTypeJSONL:
		return "application/x-ndjson"
	}
	return "application/octet-stream"
}
