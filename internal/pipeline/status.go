// Package pipeline defines the candidate status state machine for the
// pipeline service.
//
// Valid status graph:
//
//	SCREENING ──► SCHEDULED ──► SUBMITTED ──► SHORTLISTED
//	    │             │             │
//	    └─────────────┴─────────────┴───────► REJECTED
//
// SCREENING may also move straight to SUBMITTED or SHORTLISTED when a
// screener skips the assessment step. SHORTLISTED and REJECTED are terminal
// states.
package pipeline

import "fmt"

// Status values mirror the candidate_status enum in PostgreSQL.
type Status string

const (
	StatusScreening   Status = "SCREENING"
	StatusScheduled   Status = "SCHEDULED"
	StatusSubmitted   Status = "SUBMITTED"
	StatusShortlisted Status = "SHORTLISTED"
	StatusRejected    Status = "REJECTED"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Status][]Status{
	StatusScreening: {StatusScheduled, StatusSubmitted, StatusShortlisted, StatusRejected},
	StatusScheduled: {StatusSubmitted, StatusShortlisted, StatusRejected},
	StatusSubmitted: {StatusShortlisted, StatusRejected},
	// SHORTLISTED and REJECTED are terminal — no outgoing transitions
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusScreening, StatusScheduled, StatusSubmitted, StatusShortlisted, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown candidate status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// state machine.
func IsTransitionAllowed(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false // terminal state — no outgoing transitions
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for statuses with no outgoing transitions.
func IsTerminal(s Status) bool {
	_, ok := validTransitions[s]
	return !ok
}
