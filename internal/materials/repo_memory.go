package materials

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores materials in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Material
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Material)}
}

// Create stores the material.
func (r *MemoryRepo) Create(ctx context.Context, m Material) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[m.ID] = m
	return nil
}

// GetByID returns a material by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Material, error) {
	if err := ctx.Err(); err != nil {
		return Material{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return Material{}, ErrNotFound
	}
	return m, nil
}

// List returns materials newest first, optionally filtered by operation.
func (r *MemoryRepo) List(ctx context.Context, operation string, limit, offset int) ([]Material, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	all := make([]Material, 0, len(r.byID))
	for _, m := range r.byID {
		if operation == "" || m.Operation == operation {
			all = append(all, m)
		}
	}
	r.mu.RUnlock()

	if offset >= len(all) {
		return []Material{}, nil
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

var _ Repo = (*MemoryRepo)(nil)
