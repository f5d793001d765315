package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "quiz.log")

	logger, err := New(Options{Level: "debug", File: file, Console: &console})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Debug("document parsed")
	_ = logger.Sync()

	if !strings.Contains(console.String(), "document parsed") {
		t.Fatalf("console missing record: %q", console.String())
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"document parsed"`) {
		t.Fatalf("file missing JSON record: %q", data)
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var console bytes.Buffer
	logger, err := New(Options{Level: "warn", Console: &console})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("hidden")
	if console.Len() != 0 {
		t.Fatalf("info should be filtered at warn level: %q", console.String())
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(Options{Level: "chatty"}); err == nil {
		t.Fatalf("expected unknown level to fail")
	}
}
