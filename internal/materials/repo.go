package materials

import "context"

// Repo defines persistence operations for archived materials.
type Repo interface {
	Create(ctx context.Context, m Material) error
	GetByID(ctx context.Context, id string) (Material, error)
	List(ctx context.Context, operation string, limit, offset int) ([]Material, error)
}
