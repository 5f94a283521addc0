package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"videolens/internal/config"
	"videolens/internal/logging"
	"videolens/internal/services"
)

func newFileLogger(t *testing.T) (string, func() string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	return logPath, func() string {
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(content)
	}
}

func TestNewFromConfigWritesJSONFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.LogDir = t.TempDir()
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("analysis started", logging.String("model", "gemini-2.0-flash"))

	content, err := os.ReadFile(filepath.Join(cfg.Logging.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", content, err)
	}
	if entry["msg"] != "analysis started" || entry["model"] != "gemini-2.0-flash" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if entry["level"] != "info" {
		t.Fatalf("expected lower-case level, got %v", entry["level"])
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath, read := newFileLogger(t)
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if content := read(); strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath, read := newFileLogger(t)
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("message with caller")

	if content := read(); !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerRendersComponentAndCorrelation(t *testing.T) {
	logPath, read := newFileLogger(t)
	base, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRequestID(context.Background(), "0123456789abcdef")
	ctx = services.WithStage(ctx, "upload")
	logger := logging.WithContext(ctx, logging.NewComponentLogger(base, "analysis"))
	logger.Info("uploaded", logging.String("name", "files/abc"))

	content := read()
	for _, fragment := range []string{"INFO analysis: uploaded", "[req 01234567]", "stage=upload", "name=files/abc"} {
		if !strings.Contains(content, fragment) {
			t.Fatalf("expected %q in %q", fragment, content)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	logPath, read := newFileLogger(t)
	logger, err := logging.New(logging.Options{Format: "json", Level: "warn", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")

	content := read()
	if strings.Contains(content, "hidden") || !strings.Contains(content, "shown") {
		t.Fatalf("unexpected filtering result %q", content)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLogger(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "test")
	if logger.Enabled(context.Background(), 0) {
		t.Fatal("expected nop logger to be disabled")
	}
	logger.Info("discarded")
}

func TestErrorKindAndSizeAttrs(t *testing.T) {
	marked := services.Wrap(services.ErrUpload, "analysis", "upload", "clip.mp4", nil)
	if got := logging.ErrorKind(marked); got.Key != logging.FieldErrorKind || got.Value.String() != "upload_error" {
		t.Fatalf("unexpected attr %v", got)
	}
	if got := logging.ErrorKind(os.ErrClosed); got.Value.String() != "unclassified" {
		t.Fatalf("expected unclassified, got %v", got)
	}
	if got := logging.Size("size", 1_500_000); got.Value.String() != "1.5 MB" {
		t.Fatalf("unexpected size %q", got.Value.String())
	}
	if got := logging.Size("size", -1); got.Value.String() != "0 B" {
		t.Fatalf("unexpected size %q", got.Value.String())
	}
}
