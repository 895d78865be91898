package analysis

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/sh3r4rd/file_analysis/internal/model"
)

const testID = "2b1f0f0e-4c2a-4c8e-9a53-0d2f3b7d1a11"

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		fileName    string
		contentType string
		want        model.FileType
		wantErr     bool
	}{
		{"csv suffix", "data.csv", "", model.FileTypeCSV, false},
		{"upper case suffix", "DATA.CSV", "", model.FileTypeCSV, false},
		{"jsonl suffix", "events.jsonl", "", model.FileTypeJSONL, false},
		{"ndjson suffix", "events.ndjson", "", model.FileTypeJSONL, false},
		{"suffix beats content type", "data.csv", "application/x-ndjson", model.FileTypeCSV, false},
		{"content type fallback", "export", "text/csv; charset=utf-8", model.FileTypeCSV, false},
		{"ndjson content type fallback", "export.txt", "application/x-ndjson", model.FileTypeJSONL, false},
		{"unknown", "report.pdf", "application/pdf", "", true},
		{"no hints", "README", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.fileName, tt.contentType)
			if tt.wantErr {
				if !errors.Is(err, ErrUnrecognizedFormat) {
					t.Fatalf("expected ErrUnrecognizedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalyzeCSV(t *testing.T) {
	tests := []struct {
		name    string
		content string
		columns []string
		rows    int
	}{
		{"header and two rows", "a,b,c\n1,2,3\n4,5,6\n", []string{"a", "b", "c"}, 2},
		{"header only", "a,b,c\n", []string{"a", "b", "c"}, 0},
		{"header only without newline", "a,b,c", []string{"a", "b", "c"}, 0},
		{"leading blank lines", "\n\n  \nname,email\nx,y\n", []string{"name", "email"}, 1},
		{"blank lines between rows", "a,b\n1,2\n\n3,4\n\n", []string{"a", "b"}, 2},
		{"crlf", "a,b\r\n1,2\r\n3,4\r\n", []string{"a", "b"}, 2},
		{"ragged rows still counted", "a,b,c\n1\n1,2,3,4,5\n", []string{"a", "b", "c"}, 2},
		{"padded header", " a , b ,c\n1,2,3", []string{"a", "b", "c"}, 1},
		{"empty file", "", []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Analyze(testID, "data.csv", "text/csv", []byte(tt.content))
			if rec.Status != model.StatusProcessed {
				t.Fatalf("status = %q (%s), want processed", rec.Status, rec.Error)
			}
			if rec.FileType != model.FileTypeCSV {
				t.Errorf("fileType = %q, want CSV", rec.FileType)
			}
			if !reflect.DeepEqual(rec.Columns, tt.columns) {
				t.Errorf("columns = %#v, want %#v", rec.Columns, tt.columns)
			}
			if rec.RowCount == nil || *rec.RowCount != tt.rows {
				t.Errorf("rowCount = %v, want %d", rec.RowCount, tt.rows)
			}
			if rec.LineCount != nil {
				t.Errorf("lineCount should be unset, got %d", *rec.LineCount)
			}
			if err := rec.Validate(); err != nil {
				t.Errorf("record invalid: %v", err)
			}
		})
	}
}

func TestAnalyzeJSONL(t *testing.T) {
	content := `{"id":1}` + "\n" + `{"id":2,"tags":["x"]}` + "\n" + `[1,2,3]` + "\n"

	rec := Analyze(testID, "events.jsonl", "application/x-ndjson", []byte(content))

	if rec.Status != model.StatusProcessed {
		t.Fatalf("status = %q (%s), want processed", rec.Status, rec.Error)
	}
	if rec.FileType != model.FileTypeJSONL {
		t.Errorf("fileType = %q, want JSONL", rec.FileType)
	}
	if rec.LineCount == nil || *rec.LineCount != 3 {
		t.Errorf("lineCount = %v, want 3", rec.LineCount)
	}
	if rec.Columns != nil || rec.RowCount != nil {
		t.Errorf("tabular fields should be unset, got columns=%v rowCount=%v", rec.Columns, rec.RowCount)
	}
}

func TestAnalyzeJSONLSkipsBlankLines(t *testing.T) {
	content := "\n{\"a\":1}\n\n   \n{\"a\":2}\n"

	rec := Analyze(testID, "events.ndjson", "", []byte(content))

	if rec.LineCount == nil || *rec.LineCount != 2 {
		t.Fatalf("lineCount = %v, want 2", rec.LineCount)
	}
}

func TestAnalyzeJSONLInvalidLine(t *testing.T) {
	content := `{"ok":true}` + "\n" + `{"broken":` + "\n" + `{"ok":false}` + "\n"

	rec := Analyze(testID, "events.jsonl", "application/x-ndjson", []byte(content))

	if rec.Status != model.StatusError {
		t.Fatalf("status = %q, want error", rec.Status)
	}
	if !strings.Contains(rec.Error, "line 2") {
		t.Errorf("error %q should reference line 2", rec.Error)
	}
	if rec.LineCount != nil {
		t.Errorf("lineCount should not be reported, got %d", *rec.LineCount)
	}
	if rec.FileType != model.FileTypeJSONL {
		t.Errorf("fileType = %q, want JSONL", rec.FileType)
	}
}

func TestScanJSONLLineNumbersCountBlankLines(t *testing.T) {
	_, err := ScanJSONL([]byte("{}\n\nnot json\n"))

	var malformed *MalformedContentError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedContentError, got %v", err)
	}
	if malformed.Line != 3 {
		t.Errorf("line = %d, want 3", malformed.Line)
	}
}

func TestAnalyzeUnrecognized(t *testing.T) {
	rec := Analyze(testID, "report.pdf", "application/pdf", []byte("%PDF-1.7"))

	if rec.Status != model.StatusError {
		t.Fatalf("status = %q, want error", rec.Status)
	}
	if rec.FileType != "" {
		t.Errorf("fileType should be empty, got %q", rec.FileType)
	}
	if rec.Error == "" {
		t.Error("error message should be set")
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("record invalid: %v", err)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	data := []byte("a,b\n1,2\n")

	first := Analyze(testID, "data.csv", "text/csv", data)
	second := Analyze(testID, "data.csv", "text/csv", data)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated analysis differs:\n  %+v\n  %+v", first, second)
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"data.csv":     "text/csv",
		"data.jsonl":   "application/x-ndjson",
		"data.parquet": "application/octet-stream",
	}
	for name, want := range tests {
		if got := ContentTypeFor(name); got != want {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", name, got, want)
		}
	}
}
