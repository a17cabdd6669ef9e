package generations

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores generation events in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu      sync.RWMutex
	byTrace map[string]Event
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byTrace: make(map[string]Event)}
}

// Save stores the event. Saving the same trace id twice overwrites it.
func (r *MemoryRepo) Save(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.TraceID == "" {
		return ErrMissingTraceID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byTrace[ev.TraceID] = ev
	return nil
}

// ListRecent returns events newest first, optionally filtered by operation.
func (r *MemoryRepo) ListRecent(ctx context.Context, operation string, limit int) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	r.mu.RLock()
	events := make([]Event, 0, len(r.byTrace))
	for _, ev := range r.byTrace {
		if operation != "" && ev.Operation != operation {
			continue
		}
		events = append(events, ev)
	}
	r.mu.RUnlock()

	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}
