package logging

import (
	"bytes"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LogConfig{Level: "warn"})

	logger.Info("quiet")
	logger.Warn("loud", "id", 7)

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("Expected info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "msg=loud") || !strings.Contains(out, "id=7") {
		t.Errorf("Expected warn record, got %q", out)
	}
}

func TestInit_WritesToFile(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(previous)
		log.SetOutput(os.Stderr)
	})

	path := filepath.Join(t.TempDir(), "logs", "op.log")
	closer, err := Init(config.LogConfig{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	slog.Debug("hello from test")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("Expected debug record in log file, got %q", data)
	}
}
