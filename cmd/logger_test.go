package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrproliu/go-profiling-instrumentation/config"
)

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instrument.log")
	cfg := &config.Config{Log: config.LogConfig{Level: "info", File: path}}

	logger, err := newFileLogger(cfg)
	if err != nil {
		t.Fatalf("newFileLogger() error = %v", err)
	}
	logger.Info("compile source replaced")
	logger.Debug("below the level")
	_ = logger.Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file: %v", err)
	}
	if !strings.Contains(string(content), "compile source replaced") {
		t.Errorf("log file is missing the entry:\n%s", content)
	}
	if strings.Contains(string(content), "below the level") {
		t.Errorf("log file has an entry below the configured level:\n%s", content)
	}
}

func TestFileLoggerWithoutFile(t *testing.T) {
	logger, err := newFileLogger(&config.Config{Log: config.LogConfig{Level: "info"}})
	if err != nil {
		t.Fatalf("newFileLogger() error = %v", err)
	}
	if logger.Core().Enabled(-1) {
		t.Error("logger without a file should discard everything")
	}
}
