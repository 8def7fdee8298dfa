package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig configures the process logger
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level" json:"level"`

	// File, if set, sends logs to a size-rotated file instead of stderr
	File string `yaml:"file,omitempty" json:"file,omitempty"`

	// MaxSizeMB is the size at which the log file is rotated (default 10)
	MaxSizeMB int `yaml:"max_size_mb,omitempty" json:"max_size_mb,omitempty"`

	// MaxBackups is the number of rotated files kept (default 3)
	MaxBackups int `yaml:"max_backups,omitempty" json:"max_backups,omitempty"`

	// MaxAgeDays removes rotated files older than this, 0 keeps them
	MaxAgeDays int `yaml:"max_age_days,omitempty" json:"max_age_days,omitempty"`

	// Compress gzips rotated files
	Compress bool `yaml:"compress,omitempty" json:"compress,omitempty"`
}

// ParseLevel parses a level name. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// NewLogger builds a text logger writing to stderr, or to cfg.File through
// a rotating writer. The returned closer releases the file and is a no-op
// for stderr.
func NewLogger(cfg LogConfig, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		w      io.Writer = stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 10),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		w, closer = lj, lj
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h), closer, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
