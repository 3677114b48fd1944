// Package assignment manages the recruiter-to-job assignment sets used by
// manager dashboards and by candidate authorization checks.
package assignment

import (
	"context"
	"fmt"
	"sort"

	"zepul/pipeline-service/internal/pipeline"
)

// Store persists jobs and their assigned recruiter sets.
type Store interface {
	GetJob(ctx context.Context, jobID string) (pipeline.Job, error)
	// ReplaceAssignees swaps the job's entire recruiter set atomically.
	ReplaceAssignees(ctx context.Context, jobID string, recruiterIDs []string) error
	ListAssignees(ctx context.Context, jobID string) ([]string, error)
	IsAssigned(ctx context.Context, jobID, recruiterID string) (bool, error)
	// CountPickedJobs counts the company's jobs with at least one assigned
	// recruiter (the "jobs picked" figure on performance rows).
	CountPickedJobs(ctx context.Context, companyID string) (int64, error)
}

// Directory resolves the recruiters reporting to a manager.
type Directory interface {
	RecruitersOf(ctx context.Context, managerID string) ([]string, error)
}

// Authorizer decides whether an actor may manage a job's recruiter set.
type Authorizer interface {
	CanAssignRecruiters(ctx context.Context, actorID, jobID, companyID string) error
}

// Coordinator implements whole-set recruiter assignment. Assign replaces the
// full set per call — the UX contract is "select the complete list and
// submit", never incremental add/remove.
type Coordinator struct {
	store     Store
	directory Directory
	authz     Authorizer
}

// NewCoordinator returns a configured Coordinator.
func NewCoordinator(store Store, directory Directory, authz Authorizer) *Coordinator {
	return &Coordinator{store: store, directory: directory, authz: authz}
}

// Assign replaces the job's assigned-recruiter set with recruiterIDs
// (deduplicated). Returns the stored set, sorted for stable responses.
func (c *Coordinator) Assign(ctx context.Context, actorID, jobID string, recruiterIDs []string) ([]string, error) {
	job, err := c.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := c.authz.CanAssignRecruiters(ctx, actorID, job.ID, job.CompanyID); err != nil {
		return nil, err
	}

	set := dedupe(recruiterIDs)
	if err := c.store.ReplaceAssignees(ctx, job.ID, set); err != nil {
		return nil, fmt.Errorf("replace assignees for job %s: %w", job.ID, err)
	}
	return set, nil
}

// Assignees returns the job's current recruiter set, sorted.
func (c *Coordinator) Assignees(ctx context.Context, jobID string) ([]string, error) {
	if _, err := c.store.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	ids, err := c.store.ListAssignees(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list assignees for job %s: %w", jobID, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// ListAssignable returns the recruiters a manager may assign: those
// reporting to managerID.
func (c *Coordinator) ListAssignable(ctx context.Context, managerID string) ([]string, error) {
	ids, err := c.directory.RecruitersOf(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("list recruiters of %s: %w", managerID, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// dedupe returns a sorted copy of ids with duplicates and empty entries
// removed.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
