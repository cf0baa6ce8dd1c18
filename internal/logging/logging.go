// Package logging configures the process-wide slog logger
package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/config"
)

// Logger is the global slog instance for the application
var Logger = slog.Default()

// ParseLevel maps a config level name to a slog level. Unknown names
// fall back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a text logger writing to w at the configured level
func New(w io.Writer, cfg config.LogConfig) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	}))
}

// Init installs the logger described by cfg as the slog default. Logs go
// to cfg.File, or stderr when it is empty. The returned closer releases
// the file.
func Init(cfg config.LogConfig) (io.Closer, error) {
	var out io.WriteCloser = nopCloser{os.Stderr}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = file
	}

	Logger = New(out, cfg)
	slog.SetDefault(Logger)

	// Redirect standard log package output to the same place
	log.SetOutput(out)
	log.SetFlags(log.LstdFlags)

	return out, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
