package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sh3r4rd/file_analysis/internal/model"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestAnalyzeCommand(t *testing.T) {
	out, err := runCLI(t, "analyze", writeFile(t, "events.jsonl", "{\"a\":1}\n{\"a\":2}\n"))
	require.NoError(t, err)

	var rec model.ResultRecord
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, model.FileTypeJSONL, rec.FileType)
	require.NotNil(t, rec.LineCount)
	assert.Equal(t, 2, *rec.LineCount)
}

func TestAnalyzeCommandReportsErrorRecords(t *testing.T) {
	out, err := runCLI(t, "analyze", writeFile(t, "notes.txt", "hello"))

	require.Error(t, err)
	assert.Contains(t, out, `"status": "error"`)
}

func TestSubmitRequiresFile(t *testing.T) {
	_, err := runCLI(t, "submit")
	assert.Error(t, err)
}
