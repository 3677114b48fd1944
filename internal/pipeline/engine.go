package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
)

// maxPersistenceAttempts bounds the engine's retry budget for transient
// persistence failures. Exhaustion surfaces as PersistenceError.
const maxPersistenceAttempts = 3

// Engine is the single authority for candidate mutation. All status writes
// flow through ChangeStatus so the state machine and the counter ledger can
// never diverge; no other code path may write Status directly.
type Engine struct {
	candidates CandidateStore
	jobs       JobStore
	ledger     Ledger
	authz      Authorizer
	notifier   Notifier
}

// NewEngine returns a configured Engine.
func NewEngine(candidates CandidateStore, jobs JobStore, ledger Ledger, authz Authorizer, notifier Notifier) *Engine {
	return &Engine{
		candidates: candidates,
		jobs:       jobs,
		ledger:     ledger,
		authz:      authz,
		notifier:   notifier,
	}
}

// retryBackoff returns the per-operation backoff policy: exponential,
// capped at maxPersistenceAttempts total attempts.
func retryBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	return backoff.WithMaxRetries(b, maxPersistenceAttempts-1)
}

// Create registers a new candidate for a job at SCREENING status. The
// company id is resolved from the job once and cached on the record.
func (e *Engine) Create(ctx context.Context, actorID, jobID, name string) (*Candidate, error) {
	if name == "" {
		return nil, &ValidationError{Msg: "name is required"}
	}

	job, err := e.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := e.authz.CanMutateCandidate(ctx, actorID, job.ID, job.CompanyID); err != nil {
		return nil, err
	}

	c := NewCandidate(uuid.New().String(), job.ID, job.CompanyID, name, actorID, time.Now().UTC())

	if err := backoff.Retry(func() error {
		return e.candidates.Create(ctx, c)
	}, retryBackoff()); err != nil {
		return nil, &PersistenceError{Op: "create candidate", Err: err}
	}

	// The candidate id doubles as the creation event id, so duplicated
	// delivery cannot double-count the candidates metric.
	if err := backoff.Retry(func() error {
		return e.ledger.RecordNewCandidate(ctx, c.CompanyID, c.ID)
	}, retryBackoff()); err != nil {
		return nil, &PersistenceError{Op: "record new candidate", Err: err}
	}

	e.notifier.CandidateCreated(ctx, c)
	return c, nil
}

// ChangeStatus validates and applies a status transition, then feeds the
// resulting event to the counter ledger. Record update and ledger delta form
// one logical unit: a transient failure between the two is resumed on retry
// via the event id recorded in the candidate's history.
//
// A lost optimistic version check surfaces immediately as
// ErrConcurrentModification — the caller re-reads current status and decides
// whether to retry.
func (e *Engine) ChangeStatus(ctx context.Context, actorID, candidateID, newStatusStr string) (*Candidate, error) {
	to, err := ParseStatus(newStatusStr)
	if err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	var (
		result *Candidate
		event  TransitionEvent
	)

	op := func() error {
		c, err := e.candidates.Get(ctx, candidateID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}
		if err := e.authz.CanMutateCandidate(ctx, actorID, c.JobID, c.CompanyID); err != nil {
			return backoff.Permanent(err)
		}

		// A previous attempt may have persisted the record but failed before
		// the ledger delta landed. Finish the ledger step; applying an
		// already-applied event id is a no-op.
		if event.ID != "" && c.Status == to && c.LastTransition().EventID == event.ID {
			if err := e.ledger.ApplyTransition(ctx, event); err != nil {
				return err
			}
			result = c
			return nil
		}

		if !IsTransitionAllowed(c.Status, to) {
			return backoff.Permanent(&InvalidTransitionError{From: c.Status, To: to})
		}

		event = TransitionEvent{
			ID:          uuid.New().String(),
			CandidateID: c.ID,
			CompanyID:   c.CompanyID,
			From:        c.Status,
			To:          to,
			At:          time.Now().UTC(),
			ActorID:     actorID,
		}

		expected := c.Version
		c.ApplyTransition(event)
		if err := e.candidates.Update(ctx, c, expected); err != nil {
			if errors.Is(err, ErrConcurrentModification) || errors.Is(err, ErrNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}

		if err := e.ledger.ApplyTransition(ctx, event); err != nil {
			return err
		}
		result = c
		return nil
	}

	if err := backoff.Retry(op, retryBackoff()); err != nil {
		var it *InvalidTransitionError
		switch {
		case errors.Is(err, ErrNotFound),
			errors.Is(err, ErrForbidden),
			errors.Is(err, ErrConcurrentModification),
			errors.As(err, &it):
			return nil, err
		}
		return nil, &PersistenceError{Op: fmt.Sprintf("transition to %s", to), Err: err}
	}

	e.notifier.CandidateStatusChanged(ctx, event)
	return result, nil
}

// Annotate sets or replaces the free-text note on a candidate. Independent
// of the state machine — no transition is recorded.
func (e *Engine) Annotate(ctx context.Context, actorID, candidateID, note string) (*Candidate, error) {
	return e.mutate(ctx, actorID, candidateID, "annotate", func(c *Candidate) error {
		c.Notes = &note
		return nil
	})
}

// SetScore records an assessment result (0–100) supplied by the scoring
// collaborator. Never touched by status transitions.
func (e *Engine) SetScore(ctx context.Context, actorID, candidateID string, score int) (*Candidate, error) {
	if score < 0 || score > 100 {
		return nil, &ValidationError{Msg: "score must be between 0 and 100"}
	}
	return e.mutate(ctx, actorID, candidateID, "set score", func(c *Candidate) error {
		c.Score = &score
		return nil
	})
}

// Flag marks a candidate as red-flagged and bumps the company's red_flag
// counter. The bit is one-way; flagging twice is harmless.
func (e *Engine) Flag(ctx context.Context, actorID, candidateID string) (*Candidate, error) {
	c, err := e.mutate(ctx, actorID, candidateID, "flag", func(c *Candidate) error {
		c.RedFlag = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := backoff.Retry(func() error {
		return e.ledger.RecordRedFlag(ctx, c.CompanyID, "flag:"+c.ID)
	}, retryBackoff()); err != nil {
		return nil, &PersistenceError{Op: "record red flag", Err: err}
	}
	return c, nil
}

// Get returns a candidate by id.
func (e *Engine) Get(ctx context.Context, candidateID string) (*Candidate, error) {
	return e.candidates.Get(ctx, candidateID)
}

// ListByCompany returns all of a company's candidates for dashboard views.
func (e *Engine) ListByCompany(ctx context.Context, companyID string) ([]Candidate, error) {
	return e.candidates.ListByCompany(ctx, companyID)
}

// mutate runs a read-modify-write cycle on fields outside the state machine
// (notes, score, red flag). Version conflicts here are resolved by
// re-reading and reapplying fn, within the same bounded retry budget.
func (e *Engine) mutate(ctx context.Context, actorID, candidateID, op string, fn func(*Candidate) error) (*Candidate, error) {
	var result *Candidate

	attempt := func() error {
		c, err := e.candidates.Get(ctx, candidateID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}
		if err := e.authz.CanMutateCandidate(ctx, actorID, c.JobID, c.CompanyID); err != nil {
			return backoff.Permanent(err)
		}
		if err := fn(c); err != nil {
			return backoff.Permanent(err)
		}
		c.UpdatedAt = time.Now().UTC()

		expected := c.Version
		if err := e.candidates.Update(ctx, c, expected); err != nil {
			if errors.Is(err, ErrNotFound) {
				return backoff.Permanent(err)
			}
			return err // includes ErrConcurrentModification: re-read and reapply
		}
		result = c
		return nil
	}

	if err := backoff.Retry(attempt, retryBackoff()); err != nil {
		var ve *ValidationError
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden), errors.As(err, &ve):
			return nil, err
		case errors.Is(err, ErrConcurrentModification):
			return nil, ErrConcurrentModification
		}
		return nil, &PersistenceError{Op: op, Err: err}
	}
	return result, nil
}
