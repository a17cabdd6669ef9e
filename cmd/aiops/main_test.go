package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestDecodeInputYAML(t *testing.T) {
	raw, err := decodeInput("speech.yaml", []byte("cvText: |\n  Jane Smith\nlanguage: en\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["cvText"] != "Jane Smith\n" || got["language"] != "en" {
		t.Fatalf("unexpected args %+v", got)
	}
}

func TestDecodeInputJSON(t *testing.T) {
	raw, err := decodeInput("cv.json", []byte(`{"cvText":"x"}`))
	if err != nil || string(raw) != `{"cvText":"x"}` {
		t.Fatalf("unexpected %q, %v", raw, err)
	}
	if _, err := decodeInput("cv.json", []byte(`{"cvText":`)); err == nil {
		t.Fatalf("expected invalid JSON error")
	}
	if raw, err := decodeInput("", []byte("  \n")); err != nil || raw != nil {
		t.Fatalf("blank input should decode to nil, got %q, %v", raw, err)
	}
}

func TestEncodeOutput(t *testing.T) {
	out := struct {
		Title string `json:"title"`
	}{Title: "Engineer"}

	var buf bytes.Buffer
	if err := encodeOutput(&buf, out, formatJSON); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.Contains(buf.String(), `"title": "Engineer"`) {
		t.Fatalf("unexpected json %q", buf.String())
	}

	buf.Reset()
	if err := encodeOutput(&buf, out, formatYAML); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "title: Engineer" {
		t.Fatalf("unexpected yaml %q", buf.String())
	}

	buf.Reset()
	if err := encodeOutput(&buf, "# Jane", formatYAML); err != nil || buf.String() != "# Jane\n" {
		t.Fatalf("markdown should pass through, got %q, %v", buf.String(), err)
	}

	if err := encodeOutput(&buf, out, "xml"); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestMimeTypeFor(t *testing.T) {
	if mimeTypeFor("CV.PDF") != "application/pdf" {
		t.Fatalf("pdf not detected")
	}
	if !strings.Contains(mimeTypeFor("cv.docx"), "wordprocessingml") {
		t.Fatalf("docx not detected")
	}
}

func TestOperationsCommandListsAll(t *testing.T) {
	var buf bytes.Buffer
	operationsCmd.SetOut(&buf)
	if err := operationsCmd.RunE(operationsCmd, nil); err != nil {
		t.Fatalf("operations: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(buf.String()), "\n"); len(lines) != 15 {
		t.Fatalf("expected 15 operations, got %d", len(lines))
	}
}
