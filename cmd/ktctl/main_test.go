package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kt-assistant-be/pkg/events"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestExtractCmd(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "runbook.txt")
	require.NoError(t, os.WriteFile(txt, []byte("restart the worker\nthen check the queue"), 0o600))

	t.Run("whole text", func(t *testing.T) {
		out, err := run(t, "extract", txt)
		require.NoError(t, err)
		assert.Equal(t, "restart the worker\nthen check the queue\n", out)
	})

	t.Run("chunked", func(t *testing.T) {
		out, err := run(t, "extract", txt, "--chunk-size", "20", "--overlap", "0")
		require.NoError(t, err)
		assert.Contains(t, out, "--- chunk 1/2 ---")
		assert.Contains(t, out, "--- chunk 2/2 ---")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		doc := filepath.Join(dir, "notes.docx")
		require.NoError(t, os.WriteFile(doc, []byte("binary"), 0o600))

		_, err := run(t, "extract", doc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no text extracted")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := run(t, "extract", filepath.Join(dir, "nope.txt"))
		assert.Error(t, err)
	})
}

func TestPrintEvent(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer

	at := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	printEvent(&out, events.NewTopicCompleted("s1", "t1", "System Overview", 85, at))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "09:30:00 "+events.TopicCompleted, lines[0])
	assert.Equal(t, "  confidence_score: 85", lines[1])
	assert.Equal(t, "  session_id: s1", lines[2])
}
