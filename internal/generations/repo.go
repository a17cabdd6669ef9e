package generations

import "context"

// Repo defines persistence operations for generation events.
type Repo interface {
	Save(ctx context.Context, ev Event) error
	ListRecent(ctx context.Context, operation string, limit int) ([]Event, error)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
