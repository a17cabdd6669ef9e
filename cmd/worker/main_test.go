package main

import "testing"

func TestEnvInt(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "8")
	if got := envInt("WORKER_CONCURRENCY", 4); got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}
	t.Setenv("WORKER_CONCURRENCY", "-1")
	if got := envInt("WORKER_CONCURRENCY", 4); got != 4 {
		t.Fatalf("expected default for negative, got %d", got)
	}
	t.Setenv("WORKER_CONCURRENCY", "many")
	if got := envInt("WORKER_CONCURRENCY", 4); got != 4 {
		t.Fatalf("expected default for garbage, got %d", got)
	}
}
