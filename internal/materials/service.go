package materials

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"career-backend/internal/shared/storage/object"
	"career-backend/internal/shared/telemetry"
	"career-backend/internal/shared/util"
)

const markdownMimeType = "text/markdown; charset=utf-8"

// Service archives generated markdown in an object store and indexes it in Repo.
type Service struct {
	Repo  Repo
	Store object.ObjectStore
	Now   func() time.Time
}

// Archive stores markdown produced by operation and returns the material id.
func (s *Service) Archive(ctx context.Context, operation, markdown string) (string, error) {
	m, err := s.Create(ctx, operation, markdown)
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

// Create stores markdown produced by operation.
func (s *Service) Create(ctx context.Context, operation, markdown string) (Material, error) {
	operation = strings.TrimSpace(operation)
	if operation == "" || strings.TrimSpace(markdown) == "" {
		return Material{}, ErrInvalidInput
	}
	if s.Repo == nil || s.Store == nil {
		return Material{}, errors.New("missing dependencies")
	}

	key, err := object.NewKey("materials/"+operation, operation+".md")
	if err != nil {
		return Material{}, ErrInvalidInput
	}
	size, err := s.Store.Put(ctx, key, markdownMimeType, strings.NewReader(markdown))
	if err != nil {
		return Material{}, err
	}

	m := Material{
		ID:          uuid.NewString(),
		Operation:   operation,
		StorageKey:  key,
		MimeType:    markdownMimeType,
		SizeBytes:   size,
		ContentHash: util.ContentHash(markdown),
		CreatedAt:   s.now(),
	}
	if err := s.Repo.Create(ctx, m); err != nil {
		return Material{}, err
	}
	telemetry.Info("materials.archived", map[string]any{
		"materialId": m.ID,
		"operation":  operation,
		"sizeBytes":  size,
	})
	return m, nil
}

// Get returns a material by ID.
func (s *Service) Get(ctx context.Context, id string) (Material, error) {
	if strings.TrimSpace(id) == "" {
		return Material{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns materials ordered newest-first.
func (s *Service) List(ctx context.Context, operation string, limit, offset int) ([]Material, error) {
	return s.Repo.List(ctx, strings.TrimSpace(operation), limit, offset)
}

// Content returns the material and its stored markdown.
func (s *Service) Content(ctx context.Context, id string) (Material, string, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return Material{}, "", err
	}
	rc, err := s.Store.Open(ctx, m.StorageKey)
	if err != nil {
		return Material{}, "", err
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return Material{}, "", err
	}
	return m, string(raw), nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
