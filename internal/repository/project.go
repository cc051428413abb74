package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relayworks/cortex/internal/domain"
)

type ProjectRepository struct {
	db dbtx
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: pool}
}

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO projects (id, name, description, status, lead, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Name, p.Description, p.Status, nullableString(p.Lead), p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	var lead *string
	err := r.db.QueryRow(ctx,
		`SELECT id, name, description, status, lead, created_at, updated_at
		 FROM projects WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Status, &lead, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}
	if lead != nil {
		p.Lead = *lead
	}
	return &p, nil
}

func (r *ProjectRepository) List(ctx context.Context) ([]*domain.Project, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, description, status, lead, created_at, updated_at
		 FROM projects ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProjectRows(rows)
}

// ListActive returns non-terminal projects, most recently updated first,
// capped to limit. Context assembly uses this as its live snapshot source.
func (r *ProjectRepository) ListActive(ctx context.Context, limit int) ([]*domain.Project, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, name, description, status, lead, created_at, updated_at
		 FROM projects
		 WHERE status IN ('active', 'paused')
		 ORDER BY updated_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProjectRows(rows)
}

func scanProjectRows(rows pgx.Rows) ([]*domain.Project, error) {
	var results []*domain.Project
	for rows.Next() {
		var p domain.Project
		var lead *string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &lead, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if lead != nil {
			p.Lead = *lead
		}
		results = append(results, &p)
	}
	return results, rows.Err()
}
