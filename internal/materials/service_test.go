package materials

import (
	"context"
	"errors"
	"testing"
	"time"

	"career-backend/internal/shared/storage/object/local"
	"career-backend/internal/shared/util"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Service{
		Repo:  NewMemoryRepo(),
		Store: local.New(t.TempDir()),
		Now:   func() time.Time { return fixed },
	}
}

func TestArchiveAndReadBack(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	doc := "# Jane Smith\n\n## Summary\n\nBuilds payment systems."

	id, err := svc.Archive(ctx, "generateCv", doc)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}

	m, body, err := svc.Content(ctx, id)
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if body != doc {
		t.Fatalf("unexpected body %q", body)
	}
	if m.Operation != "generateCv" || m.ContentHash != util.ContentHash(doc) || m.SizeBytes != int64(len(doc)) {
		t.Fatalf("unexpected material %+v", m)
	}
}

func TestArchiveRejectsEmptyMarkdown(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Archive(context.Background(), "generateCv", "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestListFiltersByOperation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Archive(ctx, "generateCv", "# CV"); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if _, err := svc.Archive(ctx, "generateCoverLetter", "Dear Hiring Manager"); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	all, err := svc.List(ctx, "", 10, 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 materials, got %d (%v)", len(all), err)
	}
	letters, err := svc.List(ctx, "generateCoverLetter", 10, 0)
	if err != nil || len(letters) != 1 || letters[0].Operation != "generateCoverLetter" {
		t.Fatalf("unexpected filtered list %+v (%v)", letters, err)
	}
}

func TestGetUnknown(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
