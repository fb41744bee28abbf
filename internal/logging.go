package internal

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mama165/sdk-go/logs"
	slogmulti "github.com/samber/slog-multi"
)

// NewLogger returns the console logger for level. With a non-empty file the
// same records are also appended to it as JSON lines. The returned close
// function releases the file.
func NewLogger(level, file string) (*slog.Logger, func() error, error) {
	return newLogger(logs.GetLoggerFromString(level).Handler(), level, file)
}

func newLogger(console slog.Handler, level, file string) (*slog.Logger, func() error, error) {
	if file == "" {
		return slog.New(console), func() error { return nil }, nil
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", file, err)
	}
	handler := slogmulti.Fanout(
		console,
		slog.NewJSONHandler(f, &slog.HandlerOptions{Level: lvl}),
	)
	return slog.New(handler), f.Close, nil
}
