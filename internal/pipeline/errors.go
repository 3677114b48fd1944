package pipeline

import (
	"errors"
	"fmt"
)

// ─── Sentinel errors ─────────────────────────────────────────────────────────

// ErrNotFound is returned when a candidate is missing.
var ErrNotFound = errors.New("candidate not found")

// ErrJobNotFound is returned when a referenced job does not exist.
var ErrJobNotFound = errors.New("job not found")

// ErrForbidden is returned when the authorization collaborator denies the
// acting user.
var ErrForbidden = errors.New("actor is not authorized for this operation")

// ErrConcurrentModification is returned when an optimistic version check
// fails. The caller should re-read the candidate and retry.
var ErrConcurrentModification = errors.New("candidate was modified concurrently")

// ─── Typed errors ────────────────────────────────────────────────────────────

// InvalidTransitionError reports a state-machine violation. The candidate's
// status and history are left unchanged.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transition %s → %s is not allowed", e.From, e.To)
}

// PersistenceError is returned after the engine's bounded retry budget is
// exhausted. Fatal to the request; logged for operator attention.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: persistence retries exhausted: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
