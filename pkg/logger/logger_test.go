package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestInitAndLevelString(t *testing.T) {
	Init("debug")
	if got := LevelString(); got != "debug" {
		t.Fatalf("LevelString() = %q, want %q", got, "debug")
	}
	Init("WARN")
	if got := LevelString(); got != "warn" {
		t.Fatalf("LevelString() = %q, want %q", got, "warn")
	}
	Init("Error")
	if got := LevelString(); got != "error" {
		t.Fatalf("LevelString() = %q, want %q", got, "error")
	}
	Init("nonsense")
	if got := LevelString(); got != "info" {
		t.Fatalf("LevelString() = %q, want %q for unknown input", got, "info")
	}
}

func TestLevelFilteringAndPrintln(t *testing.T) {
	// capture output by swapping the package sink
	var buf bytes.Buffer
	orig := out
	out = zapcore.AddSync(&buf)
	defer func() {
		out = orig
		Init("info")
	}()

	Init("warn")
	Debugf("debug-msg")
	Infof("info-msg")
	Warnf("warn-msg")
	Errorf("error-msg")

	got := buf.String()
	if strings.Contains(got, "debug-msg") {
		t.Fatalf("debug messages should be suppressed at warn level")
	}
	if strings.Contains(got, "info-msg") {
		t.Fatalf("info messages should be suppressed at warn level")
	}
	if !strings.Contains(got, "warn-msg") {
		t.Fatalf("warn message missing: %q", got)
	}
	if !strings.Contains(got, "error-msg") {
		t.Fatalf("error message missing: %q", got)
	}

	buf.Reset()
	Println("hello")
	if strings.Contains(buf.String(), "hello") {
		t.Fatalf("Println should be suppressed at warn level")
	}

	Init("info")
	buf.Reset()
	Println("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("Println expected at info level, got: %q", buf.String())
	}
}

func TestToDirWritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	orig := out
	defer func() {
		mu.Lock()
		out = orig
		mu.Unlock()
		Init("info")
	}()

	Init("info")
	if err := ToDir(dir); err != nil {
		t.Fatalf("ToDir: %v", err)
	}
	Infof("to-file-msg")
	Sync()

	matches, err := filepath.Glob(filepath.Join(dir, "mindcare.*.log"))
	if err != nil || len(matches) == 0 {
		t.Fatalf("no rotated log file in %s (err=%v)", dir, err)
	}
	b, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "to-file-msg") {
		t.Fatalf("log file missing entry: %q", b)
	}
}
