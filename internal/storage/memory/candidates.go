// Package memory provides mutex-guarded in-memory implementations of the
// pipeline storage contracts, for tests and local development.
package memory

import (
	"context"
	"sync"

	"zepul/pipeline-service/internal/pipeline"
)

// CandidateStore is an in-memory pipeline.CandidateStore with optimistic
// versioning semantics matching the Postgres implementation.
type CandidateStore struct {
	mu         sync.Mutex
	candidates map[string]*pipeline.Candidate
}

// NewCandidateStore returns an empty CandidateStore.
func NewCandidateStore() *CandidateStore {
	return &CandidateStore{candidates: make(map[string]*pipeline.Candidate)}
}

// Create inserts a candidate. Re-creating the same id is a no-op so the
// engine's retry of a create that actually committed stays safe.
func (s *CandidateStore) Create(ctx context.Context, c *pipeline.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.candidates[c.ID]; ok {
		return nil
	}
	s.candidates[c.ID] = clone(c)
	return nil
}

// Get returns a copy of the candidate or pipeline.ErrNotFound.
func (s *CandidateStore) Get(ctx context.Context, id string) (*pipeline.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.candidates[id]
	if !ok {
		return nil, pipeline.ErrNotFound
	}
	return clone(c), nil
}

// Update persists the candidate if its stored version still equals
// expectedVersion, then increments the version. A stale expectedVersion
// returns pipeline.ErrConcurrentModification.
func (s *CandidateStore) Update(ctx context.Context, c *pipeline.Candidate, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.candidates[c.ID]
	if !ok {
		return pipeline.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return pipeline.ErrConcurrentModification
	}

	next := clone(c)
	next.Version = expectedVersion + 1
	s.candidates[c.ID] = next
	c.Version = next.Version
	return nil
}

// ListByCompany returns copies of the company's candidates.
func (s *CandidateStore) ListByCompany(ctx context.Context, companyID string) ([]pipeline.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []pipeline.Candidate
	for _, c := range s.candidates {
		if c.CompanyID == companyID {
			out = append(out, *clone(c))
		}
	}
	return out, nil
}

// CompanyIDs returns the distinct company ids with at least one candidate.
func (s *CandidateStore) CompanyIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	var out []string
	for _, c := range s.candidates {
		if _, ok := seen[c.CompanyID]; ok {
			continue
		}
		seen[c.CompanyID] = struct{}{}
		out = append(out, c.CompanyID)
	}
	return out, nil
}

// clone deep-copies a candidate so callers never share mutable state with
// the store.
func clone(c *pipeline.Candidate) *pipeline.Candidate {
	cp := *c
	cp.History = append([]pipeline.HistoryEntry(nil), c.History...)
	if c.Score != nil {
		v := *c.Score
		cp.Score = &v
	}
	if c.Notes != nil {
		v := *c.Notes
		cp.Notes = &v
	}
	return &cp
}
