package memory

import (
	"context"
	"sync"

	"zepul/pipeline-service/internal/pipeline"
)

// AssignmentStore is an in-memory assignment.Store plus a job catalog used
// to seed jobs in tests and local development.
type AssignmentStore struct {
	mu        sync.Mutex
	jobs      map[string]pipeline.Job
	assignees map[string]map[string]struct{}
}

// NewAssignmentStore returns an empty AssignmentStore.
func NewAssignmentStore() *AssignmentStore {
	return &AssignmentStore{
		jobs:      make(map[string]pipeline.Job),
		assignees: make(map[string]map[string]struct{}),
	}
}

// AddJob seeds a job into the catalog.
func (s *AssignmentStore) AddJob(job pipeline.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// GetJob returns the job or pipeline.ErrJobNotFound.
func (s *AssignmentStore) GetJob(ctx context.Context, jobID string) (pipeline.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return pipeline.Job{}, pipeline.ErrJobNotFound
	}
	return job, nil
}

// ReplaceAssignees swaps the job's entire recruiter set.
func (s *AssignmentStore) ReplaceAssignees(ctx context.Context, jobID string, recruiterIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := make(map[string]struct{}, len(recruiterIDs))
	for _, id := range recruiterIDs {
		set[id] = struct{}{}
	}
	s.assignees[jobID] = set
	return nil
}

// ListAssignees returns the job's current recruiter ids.
func (s *AssignmentStore) ListAssignees(ctx context.Context, jobID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.assignees[jobID]))
	for id := range s.assignees[jobID] {
		out = append(out, id)
	}
	return out, nil
}

// IsAssigned reports whether recruiterID is in the job's set.
func (s *AssignmentStore) IsAssigned(ctx context.Context, jobID, recruiterID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.assignees[jobID][recruiterID]
	return ok, nil
}

// CountPickedJobs counts the company's jobs with a non-empty recruiter set.
func (s *AssignmentStore) CountPickedJobs(ctx context.Context, companyID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, job := range s.jobs {
		if job.CompanyID == companyID && len(s.assignees[id]) > 0 {
			n++
		}
	}
	return n, nil
}
