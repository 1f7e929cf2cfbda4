package md5verify

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestVerbosityToLevel(t *testing.T) {
	testCases := []struct {
		verbosity int
		level     slog.Level
	}{
		{-1, slog.LevelWarn},
		{0, slog.LevelWarn},
		{1, slog.LevelInfo},
		{2, slog.LevelDebug},
		{5, slog.LevelDebug},
	}

	for _, tc := range testCases {
		if got := VerbosityToLevel(tc.verbosity); got != tc.level {
			t.Errorf("VerbosityToLevel(%d) = %v, expected %v", tc.verbosity, got, tc.level)
		}
	}
}

func TestLevelName(t *testing.T) {
	testCases := map[slog.Level]string{
		slog.LevelDebug: "DEBUG",
		slog.LevelInfo:  "INFO",
		slog.LevelWarn:  "WARNING",
		slog.LevelError: "ERROR",
		LevelCritical:   "CRITICAL",
	}
	for level, name := range testCases {
		if got := LevelName(level); got != name {
			t.Errorf("LevelName(%v) = %s, expected %s", level, got, name)
		}
	}
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, 0)

	logger.Info("hidden at default verbosity")
	logger.Warn("missing a file", "path", "/data/b.txt", "hash", digestA)
	logger.With("dir", "/data").Error("error opening file", "error", "permission denied")
	Critical(logger, "/nope is not a directory")

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	expected := []string{
		"WARNING - missing a file path=/data/b.txt hash=" + digestA,
		`ERROR - error opening file dir=/data error="permission denied"`,
		"CRITICAL - /nope is not a directory",
	}
	if len(lines) != len(expected) {
		t.Fatalf("Expected %d lines, got %d: %q", len(expected), len(lines), buf.String())
	}
	for i := range expected {
		if lines[i] != expected[i] {
			t.Errorf("Line %d:\n got  %q\n want %q", i, lines[i], expected[i])
		}
	}
}

func TestNewLogger_Verbosity(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, 2)

	logger.Debug("hashed file", "path", "odd\nname")
	logger.WithGroup("stats").Info("done", "count", 3)

	out := buf.String()
	if !strings.Contains(out, `DEBUG - hashed file path="odd\nname"`) {
		t.Errorf("Expected quoted debug line, got %q", out)
	}
	if !strings.Contains(out, "INFO - done stats.count=3") {
		t.Errorf("Expected grouped info line, got %q", out)
	}
}
