package aiops

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"career-backend/internal/aiops/recovery"
	"career-backend/internal/aiops/sanitize"
	"career-backend/internal/llm/llmtest"
	"career-backend/internal/shared/telemetry"
)

var testNow = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func newTestService(gw *llmtest.Scripted) *Service {
	svc := NewService(recovery.New(gw, 0, recovery.DefaultInitialTemperature, recovery.DefaultRetryTemperature))
	svc.now = func() time.Time { return testNow }
	return svc
}

func mustValue(t *testing.T, text string) sanitize.Value {
	t.Helper()
	v, err := sanitize.Parse(text)
	if err != nil {
		t.Fatalf("parse %q: %v", text, err)
	}
	return v
}

// roundTrip re-encodes a validated output so it can be validated again.
func roundTrip(t *testing.T, out any) sanitize.Value {
	t.Helper()
	b, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return mustValue(t, string(b))
}

// captureLogs redirects telemetry for the duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })
	return &buf
}

// logLines decodes every JSON log line whose msg equals msg.
func logLines(t *testing.T, buf *bytes.Buffer, msg string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if entry["msg"] == msg {
			out = append(out, entry)
		}
	}
	return out
}

func floatPtr(f float64) *float64 { return &f }

// garbage is model output that parses as JSON but matches no schema.
var garbage = []string{
	`42`,
	`"just a string"`,
	`null`,
	`[]`,
	`[1, "two", null]`,
	`{}`,
	`{"sections": "nope", "scoreBreakdown": [1,2], "dimensionScores": "high"}`,
	`{"overallScore": "NaN", "topImprovements": [null, 3, {"title": 7}], "skillMatch": {"a": 1}}`,
}
