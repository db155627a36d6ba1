package core

import (
	"LoraReport/internal/model"
	"os"
	"path/filepath"
	"testing"
)

const schemaOnly = `
schema:
  tasks:
    - id: 1
      report_message_size: 12
  templates:
    - id: 1
      tasks: [1]
reporter:
  mode: template
  template_id: 1
`

func TestNewSystemWithoutDevices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(schemaOnly), 0o644); err != nil {
		t.Fatal(err)
	}
	sys, err := NewSystem(path)
	if err != nil {
		t.Fatal(err)
	}
	if sys.Reporter != nil || sys.Collector != nil || sys.Store != nil {
		t.Fatalf("roles built without devices: %+v", sys)
	}
	if _, err := sys.Schema.Task(1); err != nil {
		t.Fatal(err)
	}
	if err := sys.StartAll(); err != nil {
		t.Fatal(err)
	}
	sys.StopAll()
}

func TestNewSystemErrors(t *testing.T) {
	if _, err := NewSystem(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("expected error for missing config")
	}
	cases := map[string]*model.Config{
		"bad task":   {Schema: model.SchemaConfig{Tasks: []model.TaskConfig{{ID: 16, ReportMessageSize: 8}}}},
		"bad mode":   {Reporter: model.ReporterConfig{Device: "/dev/null", Mode: "morse"}},
		"bad keys":   {LoRaWAN: model.LoRaWANConfig{Enable: true, DevAddr: "xyz"}},
		"bad format": {Collector: model.CollectorConfig{Device: "/dev/null", Format: "xml"}},
	}
	for name, cfg := range cases {
		if _, err := New(cfg); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
