package pipeline

import "context"

// CandidateStore persists candidate records. Implementations must support
// optimistic versioning: Update fails with ErrConcurrentModification when
// expectedVersion no longer matches the stored row.
type CandidateStore interface {
	Create(ctx context.Context, c *Candidate) error
	Get(ctx context.Context, id string) (*Candidate, error)
	Update(ctx context.Context, c *Candidate, expectedVersion int64) error
	ListByCompany(ctx context.Context, companyID string) ([]Candidate, error)
	CompanyIDs(ctx context.Context) ([]string, error)
}

// JobStore resolves job references at candidate creation time.
type JobStore interface {
	GetJob(ctx context.Context, jobID string) (Job, error)
}

// Ledger receives idempotent counter deltas from the engine. Implemented by
// the ledger package; duplicated delivery of the same event id is a no-op.
type Ledger interface {
	ApplyTransition(ctx context.Context, ev TransitionEvent) error
	RecordNewCandidate(ctx context.Context, companyID, eventID string) error
	RecordRedFlag(ctx context.Context, companyID, eventID string) error
}

// Authorizer decides whether an actor may mutate candidates belonging to a
// job/company pair. The engine calls this before every mutation; it never
// implements identity or session logic itself.
type Authorizer interface {
	CanMutateCandidate(ctx context.Context, actorID, jobID, companyID string) error
}

// Notifier delivers pipeline events to interested parties (gateway SSE,
// email). Fire-and-forget: the engine logs failures and moves on.
type Notifier interface {
	CandidateCreated(ctx context.Context, c *Candidate)
	CandidateStatusChanged(ctx context.Context, ev TransitionEvent)
}
