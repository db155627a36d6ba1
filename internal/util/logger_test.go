package util

import (
	"LoraReport/internal/model"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestSetupLoggerWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "report.log")
	logger, err := SetupLogger(model.LogConfig{Level: "debug", Format: "json", Outputs: []string{path}})
	if err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	zap.L().Debug("frame decoded", zap.Int("tasks", 2))
	_ = logger.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"msg":"frame decoded"`) || !strings.Contains(string(b), `"tasks":2`) {
		t.Fatalf("unexpected log content: %s", b)
	}
}

func TestSetupLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := SetupLogger(model.LogConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNormalizeLevel(t *testing.T) {
	tests := map[string]string{"": "info", "WARNING": "warn", " Debug ": "debug", "error": "error"}
	for in, want := range tests {
		if got := normalizeLevel(in); got != want {
			t.Errorf("normalizeLevel(%q) = %q, want %q", in, got, want)
		}
	}
}
