package cli

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) should fail")
	}
}

func TestNewLogger_Stderr(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := NewLogger(LogConfig{Level: "warn"}, &buf)
	if err != nil {
		t.Fatalf("NewLogger error: %v", err)
	}
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", "file", "kana_0.wav")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %s", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "file=kana_0.wav") {
		t.Errorf("unexpected log output: %s", out)
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mediaid.log")
	var stderr bytes.Buffer
	logger, closer, err := NewLogger(LogConfig{Level: "debug", File: path}, &stderr)
	if err != nil {
		t.Fatalf("NewLogger error: %v", err)
	}
	logger.Debug("to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file = %q", data)
	}
	if stderr.Len() != 0 {
		t.Errorf("stderr received %q", stderr.String())
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	if _, _, err := NewLogger(LogConfig{Level: "loud"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for bad level")
	}
}
