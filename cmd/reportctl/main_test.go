package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testSchema = `
schema:
  tasks:
    - id: 1
      report_message_size: 12
    - id: 2
      report_message_size: 9
  templates:
    - id: 1
      tasks: [2, 1]
`

func writeSchema(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yml")
	if err := os.WriteFile(path, []byte(testSchema), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEncodeKeyValue(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"-s", writeSchema(t), "encode", "1=77f0", "2=ff80"}, &out); err != nil {
		t.Fatal(err)
	}
	got := strings.TrimSpace(out.String())
	if len(got) != 640 {
		t.Fatalf("hex length = %d", len(got))
	}
	if !strings.HasPrefix(got, "45dfcbfe") {
		t.Fatalf("prefix = %s", got[:8])
	}
}

func TestEncodeTemplate(t *testing.T) {
	var out bytes.Buffer
	args := []string{"-s", writeSchema(t), "-m", "template", "-t", "1", "encode", "1=77f0", "2=ff80"}
	if err := run(args, &out); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); !strings.HasPrefix(got, "07feefe0") {
		t.Fatalf("prefix = %s", got[:8])
	}
}

func TestDecodeCSV(t *testing.T) {
	path := writeSchema(t)
	var enc bytes.Buffer
	if err := run([]string{"-s", path, "encode", "1=77f0", "2=ff80"}, &enc); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := run([]string{"-s", path, "-f", "csv", "decode", strings.TrimSpace(enc.String())}, &out); err != nil {
		t.Fatal(err)
	}
	if got, want := strings.TrimSpace(out.String()), "0,key_value,0,1=77f0;2=ff80"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRunErrors(t *testing.T) {
	path := writeSchema(t)
	cases := [][]string{
		{"-s", path},
		{"-s", path, "bogus"},
		{"-s", path, "encode", "1:77f0"},
		{"-s", path, "encode", "3=00"},
		{"-s", path, "-m", "template", "encode", "1=77f0"},
		{"-s", path, "decode"},
		{"-s", path, "decode", "zz"},
	}
	for _, args := range cases {
		if err := run(args, &bytes.Buffer{}); err == nil {
			t.Errorf("run(%v) = nil, want error", args)
		}
	}
}
