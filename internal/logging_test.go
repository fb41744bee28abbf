package internal

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger_File(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "server.log")
	var console bytes.Buffer

	// Given a console handler and a log file
	log, closeFn, err := newLogger(slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelInfo}), "INFO", path)
	req.NoError(err)

	// When records are logged
	log.With("session_id", "abc").Info("Client connected")
	log.Debug("hidden")
	req.NoError(closeFn())

	// Then both sinks receive them, filtered by level
	content, err := os.ReadFile(path)
	req.NoError(err)
	req.Contains(string(content), `"msg":"Client connected"`)
	req.Contains(string(content), `"session_id":"abc"`)
	req.NotContains(string(content), "hidden")
	req.Contains(console.String(), "msg=\"Client connected\"")
	req.Contains(console.String(), "session_id=abc")
	req.NotContains(console.String(), "hidden")
}

func TestNewLogger_BadFile(t *testing.T) {
	req := require.New(t)

	_, _, err := NewLogger("INFO", filepath.Join(t.TempDir(), "missing", "server.log"))

	req.Error(err)
}

func TestNewLogger_ConsoleOnly(t *testing.T) {
	req := require.New(t)

	log, closeFn, err := NewLogger("DEBUG", "")

	req.NoError(err)
	req.NotNil(log)
	req.NoError(closeFn())
}
