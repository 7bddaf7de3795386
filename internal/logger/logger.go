package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger. It is injected into the parsing pipeline so the
// pipeline itself stays free of global state.
type Logger struct {
	*slog.Logger
}

func New(level string) *Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops everything. Library callers that do not
// care about parser diagnostics can pass it instead of nil.
func Discard() *Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return &Logger{Logger: slog.New(handler)}
}
