package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"zepul/pipeline-service/internal/pipeline"
)

// AssignmentStore persists jobs and recruiter assignment sets.
type AssignmentStore struct {
	pool *pgxpool.Pool
}

// NewAssignmentStore returns an AssignmentStore on pool.
func NewAssignmentStore(pool *pgxpool.Pool) *AssignmentStore {
	return &AssignmentStore{pool: pool}
}

// GetJob returns the job or pipeline.ErrJobNotFound.
func (s *AssignmentStore) GetJob(ctx context.Context, jobID string) (pipeline.Job, error) {
	var job pipeline.Job
	err := s.pool.QueryRow(ctx,
		`SELECT id, company_id, title FROM jobs WHERE id = $1`, jobID,
	).Scan(&job.ID, &job.CompanyID, &job.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return pipeline.Job{}, pipeline.ErrJobNotFound
	}
	if err != nil {
		return pipeline.Job{}, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ReplaceAssignees swaps the job's entire recruiter set in one transaction.
func (s *AssignmentStore) ReplaceAssignees(ctx context.Context, jobID string, recruiterIDs []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin assignment tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM job_recruiters WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("clear assignees: %w", err)
	}
	for _, id := range recruiterIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO job_recruiters (job_id, recruiter_id) VALUES ($1, $2)`,
			jobID, id,
		); err != nil {
			return fmt.Errorf("insert assignee %s: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit assignment tx: %w", err)
	}
	return nil
}

// ListAssignees returns the job's current recruiter ids.
func (s *AssignmentStore) ListAssignees(ctx context.Context, jobID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT recruiter_id FROM job_recruiters WHERE job_id = $1`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan assignee: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// IsAssigned reports whether recruiterID is assigned to the job.
func (s *AssignmentStore) IsAssigned(ctx context.Context, jobID, recruiterID string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM job_recruiters WHERE job_id = $1 AND recruiter_id = $2
		 )`,
		jobID, recruiterID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return ok, nil
}

// CountPickedJobs counts the company's jobs with at least one assigned
// recruiter.
func (s *AssignmentStore) CountPickedJobs(ctx context.Context, companyID string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT j.id)
		 FROM jobs j
		 JOIN job_recruiters r ON r.job_id = j.id
		 WHERE j.company_id = $1`,
		companyID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count picked jobs: %w", err)
	}
	return n, nil
}
