package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relayworks/cortex/internal/domain"
)

type MemberRepository struct {
	db dbtx
}

func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{db: pool}
}

func (r *MemberRepository) Create(ctx context.Context, m *domain.Member) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO members (id, name, role, department, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.Name, nullableString(m.Role), nullableString(m.Department), m.Status, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

func (r *MemberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	var m domain.Member
	var role, department *string
	err := r.db.QueryRow(ctx,
		`SELECT id, name, role, department, status, created_at, updated_at
		 FROM members WHERE id = $1`,
		id,
	).Scan(&m.ID, &m.Name, &role, &department, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	if role != nil {
		m.Role = *role
	}
	if department != nil {
		m.Department = *department
	}
	return &m, nil
}

func (r *MemberRepository) List(ctx context.Context) ([]*domain.Member, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, role, department, status, created_at, updated_at
		 FROM members ORDER BY name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemberRows(rows)
}

// ListActive returns active roster members capped to limit for the context
// snapshot digest.
func (r *MemberRepository) ListActive(ctx context.Context, limit int) ([]*domain.Member, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, name, role, department, status, created_at, updated_at
		 FROM members
		 WHERE status = 'active'
		 ORDER BY name ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemberRows(rows)
}

func scanMemberRows(rows pgx.Rows) ([]*domain.Member, error) {
	var results []*domain.Member
	for rows.Next() {
		var m domain.Member
		var role, department *string
		if err := rows.Scan(&m.ID, &m.Name, &role, &department, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if role != nil {
			m.Role = *role
		}
		if department != nil {
			m.Department = *department
		}
		results = append(results, &m)
	}
	return results, rows.Err()
}
