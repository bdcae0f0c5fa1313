package app

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// newLogger builds the app's isolated logger without touching the global
// default. Unknown levels or formats are configuration mistakes and are
// reported rather than silently downgraded to defaults.
func newLogger(levelStr, formatStr string, outW io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		return nil, fmt.Errorf("unknown log level %q (want 'debug', 'info', 'warn' or 'error')", levelStr)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(formatStr) {
	case "json":
		return slog.New(slog.NewJSONHandler(outW, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(outW, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want 'text' or 'json')", formatStr)
	}
}
