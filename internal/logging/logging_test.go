package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger, cleanup, err := New(Options{Level: "warn", Output: &buf})
	require.NoError(t, err)
	defer cleanup()

	logger.Info("dropped")
	logger.Warn("image omitted", "ref", "photos/1.jpg")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "image omitted", rec["msg"])
	assert.Equal(t, "photos/1.jpg", rec["ref"])
}

func TestNewTextWithFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "app.log")
	var buf bytes.Buffer
	logger, cleanup, err := New(Options{Level: "debug", File: path, Text: true, Output: &buf})
	require.NoError(t, err)

	logger.Debug("report state", "to", "rendering")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to=rendering")
	assert.Contains(t, buf.String(), "msg=\"report state\"")
}

func TestNewBadFile(t *testing.T) {
	_, _, err := New(Options{File: filepath.Join(t.TempDir(), "missing", "app.log")})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
