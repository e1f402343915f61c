package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Run("creates log file in workspace directory", func(t *testing.T) {
		dir := t.TempDir()

		logger, err := NewLogger(dir, LevelDebug, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		logPath := filepath.Join(dir, "orchestrator.log")
		if _, err := os.Stat(logPath); os.IsNotExist(err) {
			t.Errorf("log file was not created at %s", logPath)
		}
	})

	t.Run("writes to stderr when workspace is empty", func(t *testing.T) {
		logger, err := NewLogger("", LevelInfo, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		if logger.writer != nil {
			t.Error("expected writer to be nil when workspace is empty")
		}
	})

	t.Run("defaults to INFO level for invalid level string", func(t *testing.T) {
		dir := t.TempDir()

		logger, err := NewLogger(dir, "invalid", DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		if logger.logger == nil {
			t.Error("expected logger to be created")
		}
	})
}

func TestLogLevels(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelDebug, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Debug("debug message", "key", "value")
	logger.Info("info message", "key", "value")
	logger.Warn("warn message", "key", "value")
	logger.Error("error message", "key", "value")

	logger.Close()

	content, err := os.ReadFile(filepath.Join(dir, "orchestrator.log"))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 log lines, got %d", len(lines))
	}

	wantLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	for i, line := range lines {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i, err)
		}
		if entry["level"] != wantLevels[i] {
			t.Errorf("line %d level = %v, want %v", i, entry["level"], wantLevels[i])
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelWarn, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Debug("should be filtered")
	logger.Info("should be filtered")
	logger.Warn("should appear")
	logger.Error("should appear")

	logger.Close()

	content, err := os.ReadFile(filepath.Join(dir, "orchestrator.log"))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Errorf("expected 2 log lines at WARN level, got %d", len(lines))
	}
}

func TestContextPropagation(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelDebug, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	child := logger.WithComponent("supervisor").WithParticipant("alpha")
	child.Info("process started", "pid", 1234)

	logger.Close()

	content, err := os.ReadFile(filepath.Join(dir, "orchestrator.log"))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &entry); err != nil {
		t.Fatalf("log line is not valid JSON: %v", err)
	}

	if entry["component"] != "supervisor" {
		t.Errorf("component = %v, want %q", entry["component"], "supervisor")
	}
	if entry["participant"] != "alpha" {
		t.Errorf("participant = %v, want %q", entry["participant"], "alpha")
	}
	if entry["pid"] != float64(1234) {
		t.Errorf("pid = %v, want 1234", entry["pid"])
	}
}

func TestChildLoggerDoesNotMutateParent(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelDebug, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	_ = logger.WithParticipant("alpha")
	logger.Info("parent message")

	logger.Close()

	content, err := os.ReadFile(filepath.Join(dir, "orchestrator.log"))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &entry); err != nil {
		t.Fatalf("log line is not valid JSON: %v", err)
	}

	if _, ok := entry["participant"]; ok {
		t.Error("parent logger should not carry child attributes")
	}
}

func TestWith(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelDebug, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	child := logger.With("transport", "pty", "attempt", 2)
	child.Info("restarting")

	logger.Close()

	content, err := os.ReadFile(filepath.Join(dir, "orchestrator.log"))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &entry); err != nil {
		t.Fatalf("log line is not valid JSON: %v", err)
	}

	if entry["transport"] != "pty" {
		t.Errorf("transport = %v, want %q", entry["transport"], "pty")
	}
	if entry["attempt"] != float64(2) {
		t.Errorf("attempt = %v, want 2", entry["attempt"])
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()

	// Should not panic or create files
	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelInfo, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"DEBUG", LevelDebug},
		{"debug", LevelDebug},
		{"Info", LevelInfo},
		{"WARN", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidLevels(t *testing.T) {
	levels := ValidLevels()
	if len(levels) != 4 {
		t.Errorf("expected 4 valid levels, got %d", len(levels))
	}
}
