package materials

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const materialColumns = `id, operation, storage_key, mime_type, size_bytes, content_hash, created_at`

// Create inserts a material.
func (r *PGRepo) Create(ctx context.Context, m Material) error {
	const query = `
INSERT INTO materials (` + materialColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		m.ID,
		m.Operation,
		m.StorageKey,
		m.MimeType,
		m.SizeBytes,
		m.ContentHash,
		m.CreatedAt,
	)
	return err
}

// GetByID returns a material by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Material, error) {
	const query = `
SELECT ` + materialColumns + `
FROM materials
WHERE id = $1 AND deleted_at IS NULL
LIMIT 1`
	m, err := scanMaterial(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Material{}, ErrNotFound
		}
		return Material{}, err
	}
	return m, nil
}

// List lists materials ordered newest-first. An empty operation matches all.
func (r *PGRepo) List(ctx context.Context, operation string, limit, offset int) ([]Material, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT ` + materialColumns + `
FROM materials
WHERE ($1 = '' OR operation = $1) AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, operation, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Material{}
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMaterial(row rowScanner) (Material, error) {
	var m Material
	err := row.Scan(
		&m.ID,
		&m.Operation,
		&m.StorageKey,
		&m.MimeType,
		&m.SizeBytes,
		&m.ContentHash,
		&m.CreatedAt,
	)
	return m, err
}

var _ Repo = (*PGRepo)(nil)
