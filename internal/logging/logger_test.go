package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lpupload/internal/config"
	"lpupload/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Dir = t.TempDir()

	var stderr bytes.Buffer
	logger, err := logging.NewFromConfig(&cfg, &stderr, false)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from test")

	content, err := os.ReadFile(filepath.Join(cfg.Logging.Dir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Fatalf("expected message in log file, got %q", content)
	}
	if stderr.Len() != 0 {
		t.Fatalf("expected nothing on stderr with a log directory, got %q", stderr.String())
	}
}

func TestNewFromConfigStderrWarnOnly(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Dir = ""

	var stderr bytes.Buffer
	logger, err := logging.NewFromConfig(&cfg, &stderr, false)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud")
	if strings.Contains(stderr.String(), "quiet") || !strings.Contains(stderr.String(), "loud") {
		t.Fatalf("expected only warnings on stderr, got %q", stderr.String())
	}
}

func TestNewFromConfigVerbose(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Dir = ""

	var stderr bytes.Buffer
	logger, err := logging.NewFromConfig(&cfg, &stderr, true)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Debug("trace")
	if !strings.Contains(stderr.String(), "DEBUG trace") {
		t.Fatalf("expected debug output on stderr, got %q", stderr.String())
	}
}

func TestConsoleLoggerRendersComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "upload").Info("uploaded",
		logging.Args(logging.String(logging.FieldFile, "a b.tar.bz2"), logging.Int("bytes", 42))...)

	line := buf.String()
	if !strings.Contains(line, "INFO upload: uploaded") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, `file="a b.tar.bz2"`) {
		t.Fatalf("expected quoted file field, got %q", line)
	}
	if !strings.Contains(line, "bytes=42") {
		t.Fatalf("expected bytes field, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("debug message")
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", logging.Args(logging.Error(errors.New("boom")))...)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "WARN shown error=boom") {
		t.Fatalf("expected warn line with error, got %q", out)
	}
}

func TestJSONLoggerIncludesRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithRunID(context.Background(), "run-123")
	logging.WithContext(ctx, logger).Info("started")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if payload[logging.FieldRunID] != "run-123" {
		t.Fatalf("expected run_id in payload, got %#v", payload)
	}
	if payload["level"] != "info" {
		t.Fatalf("expected lowercase level, got %#v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %#v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected unsupported format error")
	}
}
