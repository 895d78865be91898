package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sh3r4rd/file_analysis/internal/model"
)

// MalformedContentError reports the first line that failed structural parsing.
type MalformedContentError struct {
	FileType model.FileType
	Line     int
}

func (e *MalformedContentError) Error() string {
	return fmt.Sprintf("invalid %s content: line %d is not valid JSON", e.FileType, e.Line)
}

// CSVSummary is the result of a permissive CSV scan.
type CSVSummary struct {
	Columns  []string
	RowCount int
}

// JSONLSummary is the result of a JSON Lines scan.
type JSONLSummary struct {
	LineCount int
}

// Analyze turns raw bytes into a terminal result record.
func Analyze(fileID, fileName, contentType string, data []byte) model.ResultRecord {
	ft, err := Classify(fileName, contentType)
	if err != nil {
		return model.NewErrorResult(fileID, "", fmt.Sprintf("unsupported file type for %q: expected .csv or .jsonl", fileName))
	}

	switch ft {
	case model.FileTypeCSV:
		s := ScanCSV(data)
		return model.NewCSVResult(fileID, s.Columns, s.RowCount)
	case model.FileTypeJSONL:
		s, err := ScanJSONL(data)
		if err != nil {
			var malformed *MalformedContentError
			if errors.As(err, &malformed) {
				return model.NewErrorResult(fileID, ft, malformed.Error())
			}
			return model.NewErrorResult(fileID, ft, "invalid JSONL content")
		}
		return model.NewJSONLResult(fileID, s.LineCount)
	}
	return model.NewErrorResult(fileID, "", fmt.Sprintf("unsupported file type %s", ft))
}

// ScanCSV treats the first non-empty line as the header and counts every
// later non-empty line as a row. Quoting is not interpreted and row arity is
// not checked against the header.
func ScanCSV(data []byte) CSVSummary {
	summary := CSVSummary{Columns: []string{}}
	header := true
	for _, line := range splitLines(data) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if header {
			for _, field := range strings.Split(line, model.CSVDelimiter) {
				summary.Columns = append(summary.Columns, strings.TrimSpace(field))
			}
			header = false
			continue
		}
		summary.RowCount++
	}
	return summary
}

// ScanJSONL counts non-empty lines and checks each one is a JSON value.
// Line numbers in errors are 1-based and count blank lines.
func ScanJSONL(data []byte) (JSONLSummary, error) {
	var summary JSONLSummary
	for i, line := range splitLines(data) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !json.Valid([]byte(trimmed)) {
			return JSONLSummary{}, &MalformedContentError{FileType: model.FileTypeJSONL, Line: i + 1}
		}
		summary.LineCount++
	}
	return summary, nil
}

func splitLines(data []byte) []string {
	text := strings.TrimPrefix(string(data), "\ufeff")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
