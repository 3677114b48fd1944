// Package postgres implements the pipeline storage contracts on pgx.
// See schema.sql for the backing tables.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"zepul/pipeline-service/internal/pipeline"
)

// CandidateStore persists candidates with an optimistic version column.
type CandidateStore struct {
	pool *pgxpool.Pool
}

// NewCandidateStore returns a CandidateStore on pool.
func NewCandidateStore(pool *pgxpool.Pool) *CandidateStore {
	return &CandidateStore{pool: pool}
}

// Create inserts a candidate. Re-inserting the same id is a no-op so a
// retried create that already committed stays safe.
func (s *CandidateStore) Create(ctx context.Context, c *pipeline.Candidate) error {
	history, err := json.Marshal(c.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO candidates
		   (id, job_id, company_id, name, current_status, red_flag, version, history, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5::candidate_status, $6, $7, $8::jsonb, $9, $10)
		 ON CONFLICT (id) DO NOTHING`,
		c.ID, c.JobID, c.CompanyID, c.Name, string(c.Status), c.RedFlag,
		c.Version, string(history), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert candidate: %w", err)
	}
	return nil
}

// Get returns the candidate or pipeline.ErrNotFound.
func (s *CandidateStore) Get(ctx context.Context, id string) (*pipeline.Candidate, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, job_id, company_id, name, current_status, score, notes,
		        red_flag, version, history, created_at, updated_at
		 FROM candidates
		 WHERE id = $1`,
		id,
	)
	c, err := scanCandidate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pipeline.ErrNotFound
		}
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}

// Update writes the candidate's mutable fields if the stored version still
// equals expectedVersion, incrementing the version. A stale version returns
// pipeline.ErrConcurrentModification.
func (s *CandidateStore) Update(ctx context.Context, c *pipeline.Candidate, expectedVersion int64) error {
	history, err := json.Marshal(c.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE candidates
		 SET current_status = $1::candidate_status,
		     score          = $2,
		     notes          = $3,
		     red_flag       = $4,
		     history        = $5::jsonb,
		     version        = version + 1,
		     updated_at     = $6
		 WHERE id = $7 AND version = $8`,
		string(c.Status), c.Score, c.Notes, c.RedFlag, string(history),
		c.UpdatedAt, c.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update candidate: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Distinguish a lost version race from a missing row.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM candidates WHERE id = $1)`, c.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check candidate existence: %w", err)
		}
		if exists {
			return pipeline.ErrConcurrentModification
		}
		return pipeline.ErrNotFound
	}

	c.Version = expectedVersion + 1
	return nil
}

// ListByCompany returns all of the company's candidates, newest first.
func (s *CandidateStore) ListByCompany(ctx context.Context, companyID string) ([]pipeline.Candidate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_id, company_id, name, current_status, score, notes,
		        red_flag, version, history, created_at, updated_at
		 FROM candidates
		 WHERE company_id = $1
		 ORDER BY updated_at DESC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	out := make([]pipeline.Candidate, 0)
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// CompanyIDs returns the distinct company ids with at least one candidate.
func (s *CandidateStore) CompanyIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT company_id FROM candidates`)
	if err != nil {
		return nil, fmt.Errorf("list company ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan company id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanCandidate(row pgx.Row) (*pipeline.Candidate, error) {
	var (
		c       pipeline.Candidate
		status  string
		history []byte
	)
	if err := row.Scan(
		&c.ID, &c.JobID, &c.CompanyID, &c.Name, &status, &c.Score, &c.Notes,
		&c.RedFlag, &c.Version, &history, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Status = pipeline.Status(status)
	if err := json.Unmarshal(history, &c.History); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	return &c, nil
}
