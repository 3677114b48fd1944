package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"zepul/pipeline-service/internal/auth"
)

// Directory resolves actors from the actors table.
type Directory struct {
	pool *pgxpool.Pool
}

// NewDirectory returns a Directory on pool.
func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

// GetActor returns the actor or auth.ErrActorNotFound.
func (d *Directory) GetActor(ctx context.Context, id string) (auth.Actor, error) {
	var (
		a    auth.Actor
		role string
	)
	err := d.pool.QueryRow(ctx,
		`SELECT id, role, COALESCE(company_id, ''), COALESCE(manager_id, '')
		 FROM actors
		 WHERE id = $1`,
		id,
	).Scan(&a.ID, &role, &a.CompanyID, &a.ManagerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Actor{}, auth.ErrActorNotFound
	}
	if err != nil {
		return auth.Actor{}, fmt.Errorf("get actor: %w", err)
	}
	a.Role = auth.Role(role)
	return a, nil
}

// RecruitersOf returns the ids of recruiters reporting to managerID.
func (d *Directory) RecruitersOf(ctx context.Context, managerID string) ([]string, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT id FROM actors WHERE role = 'RECRUITER' AND manager_id = $1`,
		managerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list recruiters: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recruiter id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
