package parser

import (
	"LoraReport/internal/model"
	"encoding/json"
	"testing"
	"time"
)

func sampleRecord() model.Record {
	return model.Record{
		Seq:      12,
		Received: time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC),
		Mode:     "key_value",
		Tasks:    []uint8{2, 1},
		Values:   map[uint8][]byte{1: {0x77, 0xF0}, 2: {0xFF, 0x80}},
	}
}

func TestCSVFormat(t *testing.T) {
	got, err := NewCSVParser().Format(sampleRecord())
	if err != nil {
		t.Fatal(err)
	}
	if want := "12,key_value,0,2=ff80;1=77f0"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestJSONFormat(t *testing.T) {
	got, err := NewJSONParser().Format(sampleRecord())
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Seq    uint64            `json:"seq"`
		Mode   string            `json:"mode"`
		Tasks  []int             `json:"tasks"`
		Values map[string]string `json:"values"`
	}
	if err := json.Unmarshal([]byte(got), &doc); err != nil {
		t.Fatalf("invalid json %q: %v", got, err)
	}
	if doc.Seq != 12 || doc.Mode != "key_value" || doc.Values["1"] != "77f0" || doc.Values["2"] != "ff80" {
		t.Fatalf("unexpected document %+v", doc)
	}
	if len(doc.Tasks) != 2 || doc.Tasks[0] != 2 || doc.Tasks[1] != 1 {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", "json", "CSV"} {
		if _, err := New(name); err != nil {
			t.Errorf("New(%q): %v", name, err)
		}
	}
	if _, err := New("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
