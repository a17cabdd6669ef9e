package aiops

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"career-backend/internal/llm/llmtest"
)

func TestRegistryCoversOperations(t *testing.T) {
	ops := Operations()
	if len(ops) != len(registry) {
		t.Fatalf("Operations returned %d names for %d runners", len(ops), len(registry))
	}
	for _, op := range []string{OpParseCvText, OpEvaluateApplicationStrength, OpImproveMaterial, OpGenerateCvBlocks} {
		if !Known(op) {
			t.Fatalf("%s not registered", op)
		}
	}
	for i := 1; i < len(ops); i++ {
		if ops[i-1] > ops[i] {
			t.Fatalf("operations not sorted: %v", ops)
		}
	}
}

func TestRunUnknownOperation(t *testing.T) {
	_, err := newTestService(llmtest.Texts()).Run(context.Background(), "nope", nil)
	if !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
}

func TestRunDecodesArguments(t *testing.T) {
	gw := llmtest.Texts(`{"situation": "S", "task": "T", "action": "A", "result": "R"}`)
	out, err := newTestService(gw).Run(context.Background(), OpGenerateStarStory, json.RawMessage(`{"sourceText": "Migrated billing"}`))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	story, ok := out.(StarStory)
	if !ok || story.Result != "R" {
		t.Fatalf("unexpected output %#v", out)
	}
}

func TestRunRejectsBadArguments(t *testing.T) {
	_, err := newTestService(llmtest.Texts()).Run(context.Background(), OpGenerateStarStory, json.RawMessage(`["not", "an", "object"]`))
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) || invalid.Field != "arguments" {
		t.Fatalf("expected arguments error, got %v", err)
	}
}
