package model

import (
	"encoding/json"
	"errors"
)

// Status is the terminal state of a ResultRecord. There is no pending
// value: a missing record is the pending state.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusError     Status = "error"
)

// FileType is a recognized structural format.
type FileType string

const (
	FileTypeCSV   FileType = "CSV"
	FileTypeJSONL FileType = "JSONL"
)

// ResultRecord is the persisted outcome of analysing one submission. It is
// stored as JSON under ResultsPrefix or as an item in the results table.
type ResultRecord struct {
	FileID    string   `json:"fileId" dynamodbav:"fileId"`
	Status    Status   `json:"status" dynamodbav:"status"`
	FileType  FileType `json:"fileType,omitempty" dynamodbav:"fileType,omitempty"`
	Columns   []string `json:"columns,omitempty" dynamodbav:"columns,omitempty"`
	RowCount  *int     `json:"rowCount,omitempty" dynamodbav:"rowCount,omitempty"`
	LineCount *int     `json:"lineCount,omitempty" dynamodbav:"lineCount,omitempty"`
	Error     string   `json:"error,omitempty" dynamodbav:"error,omitempty"`
}

// NewCSVResult builds a processed record for a tabular file.
func NewCSVResult(fileID string, columns []string, rowCount int) ResultRecord {
	if columns == nil {
		columns = []string{}
	}
	return ResultRecord{
		FileID:   fileID,
		Status:   StatusProcessed,
		FileType: FileTypeCSV,
		Columns:  columns,
		RowCount: &rowCount,
	}
}

// NewJSONLResult builds a processed record for a line-oriented file.
func NewJSONLResult(fileID string, lineCount int) ResultRecord {
	return ResultRecord{
		FileID:    fileID,
		Status:    StatusProcessed,
		FileType:  FileTypeJSONL,
		LineCount: &lineCount,
	}
}

// NewErrorResult builds an error record. fileType is empty when the format
// could not be recognized.
func NewErrorResult(fileID string, fileType FileType, message string) ResultRecord {
	return ResultRecord{
		FileID:   fileID,
		Status:   StatusError,
		FileType: fileType,
		Error:    message,
	}
}

// IsTerminal reports whether the record will never change again.
func (r ResultRecord) IsTerminal() bool {
	return r.Status == StatusProcessed || r.Status == StatusError
}

// Validate enforces the processed/error field exclusivity.
func (r ResultRecord) Validate() error {
	if r.FileID == "" {
		return errors.New("result record: fileId is required")
	}
	hasStats := r.Columns != nil || r.RowCount != nil || r.LineCount != nil
	switch r.Status {
	case StatusProcessed:
		if r.Error != "" {
			return errors.New("result record: processed record carries an error")
		}
		switch r.FileType {
		case FileTypeCSV:
			if r.RowCount == nil || r.LineCount != nil {
				return errors.New("result record: CSV record needs rowCount only")
			}
		case FileTypeJSONL:
			if r.LineCount == nil || r.RowCount != nil || r.Columns != nil {
				return errors.New("result record: JSONL record needs lineCount only")
			}
		default:
			return errors.New("result record: processed record without a known fileType")
		}
	case StatusError:
		if r.Error == "" {
			return errors.New("result record: error record without a message")
		}
		if hasStats {
			return errors.New("result record: error record carries statistics")
		}
	default:
		return errors.New("result record: unknown status " + string(r.Status))
	}
	return nil
}

// MarshalJSON always emits columns for processed CSV records, even when the
// header was empty, so clients see [] rather than a missing field.
func (r ResultRecord) MarshalJSON() ([]byte, error) {
	type record ResultRecord
	out := struct {
		record
		Columns *[]string `json:"columns,omitempty"`
	}{record: record(r)}
	if r.Status == StatusProcessed && r.FileType == FileTypeCSV {
		cols := r.Columns
		if cols == nil {
			cols = []string{}
		}
		out.Columns = &cols
	}
	return json.Marshal(out)
}
