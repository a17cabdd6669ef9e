package telemetry

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
)

func TestInfoWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Info("ai.operation", map[string]any{"operation": "parseCvText"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "ai.operation" || entry["level"] != "info" {
		t.Fatalf("unexpected entry %#v", entry)
	}
	if entry["operation"] != "parseCvText" {
		t.Fatalf("expected operation field, got %#v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts field")
	}
}

func TestErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Error("ai.operation.error", nil)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["level"] != "error" {
		t.Fatalf("expected error level, got %v", entry["level"])
	}
}
