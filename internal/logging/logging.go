package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type DualLogger struct {
	Logger *slog.Logger
	file   *os.File
}

// New creates a slog logger that logs to stdout and, when path is set, also
// appends to that file
func New(path, level string) (*DualLogger, error) {
	writers := []io.Writer{os.Stdout}

	var file *os.File
	if path != "" {
		var err error
		file, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		writers = append(writers, file)
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: ParseLevel(level)})

	return &DualLogger{Logger: slog.New(handler), file: file}, nil
}

// Close releases the log file, if any
func (d *DualLogger) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}

// ParseLevel maps debug/info/warn/error to slog levels; anything else is info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Discard returns a logger that drops everything, for tests
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
