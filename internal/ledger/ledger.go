// Package ledger maintains derived per-company candidate counters without
// double-counting or losing updates under concurrent requests.
//
// Every delta is keyed by a transition event id: applying the same event
// twice is a no-op, so retried or duplicated delivery is safe. The ledger is
// a rebuildable projection — candidate history is the source of truth.
package ledger

import (
	"context"
	"fmt"

	"zepul/pipeline-service/internal/pipeline"
)

// Metric names, keyed per company in the backing store.
const (
	MetricCandidates = "candidates"
	MetricSelected   = "selected"
	MetricRejected   = "rejected"
	MetricRedFlag    = "red_flag"
)

// Store is the persistence contract for ledger entries. ApplyDelta must be
// atomic per (companyID, metric) key and must report applied=false without
// side effects when eventID was already recorded for that key.
type Store interface {
	ApplyDelta(ctx context.Context, companyID, metric string, delta int64, eventID string) (applied bool, err error)
	Value(ctx context.Context, companyID, metric string) (int64, error)
	// Replace atomically swaps all counters and applied-event sets for a
	// company. Used only by Rebuild.
	Replace(ctx context.Context, companyID string, counters map[string]int64, applied map[string][]string) error
}

// Snapshot is a point-in-time read of one company's counters.
type Snapshot struct {
	Candidates int64 `json:"candidates"`
	Selected   int64 `json:"selected"`
	Rejected   int64 `json:"rejected"`
	RedFlags   int64 `json:"redFlags"`
}

// Ledger applies idempotent counter deltas on top of a Store.
type Ledger struct {
	store Store
}

// New returns a Ledger backed by store.
func New(store Store) *Ledger { return &Ledger{store: store} }

// metricForStatus maps a terminal status to its counter. Non-terminal
// statuses carry no counter of their own — a candidate in flight is counted
// only under candidates.
func metricForStatus(s pipeline.Status) string {
	switch s {
	case pipeline.StatusShortlisted:
		return MetricSelected
	case pipeline.StatusRejected:
		return MetricRejected
	}
	return ""
}

// ApplyTransition applies the counter deltas for one transition event:
// decrement the metric of the from-status (if any), increment the metric of
// the to-status. Re-delivery of the same event id is a no-op.
func (l *Ledger) ApplyTransition(ctx context.Context, ev pipeline.TransitionEvent) error {
	if dec := metricForStatus(ev.From); dec != "" {
		if _, err := l.store.ApplyDelta(ctx, ev.CompanyID, dec, -1, ev.ID); err != nil {
			return fmt.Errorf("ledger decrement %s: %w", dec, err)
		}
	}
	if inc := metricForStatus(ev.To); inc != "" {
		if _, err := l.store.ApplyDelta(ctx, ev.CompanyID, inc, +1, ev.ID); err != nil {
			return fmt.Errorf("ledger increment %s: %w", inc, err)
		}
	}
	return nil
}

// RecordNewCandidate bumps the company's candidates counter, keyed by the
// candidate-creation event id.
func (l *Ledger) RecordNewCandidate(ctx context.Context, companyID, eventID string) error {
	if _, err := l.store.ApplyDelta(ctx, companyID, MetricCandidates, +1, eventID); err != nil {
		return fmt.Errorf("ledger record candidate: %w", err)
	}
	return nil
}

// RecordRedFlag bumps the company's red_flag counter, keyed per candidate.
func (l *Ledger) RecordRedFlag(ctx context.Context, companyID, eventID string) error {
	if _, err := l.store.ApplyDelta(ctx, companyID, MetricRedFlag, +1, eventID); err != nil {
		return fmt.Errorf("ledger record red flag: %w", err)
	}
	return nil
}

// Snapshot reads the company's counters. No side effects.
func (l *Ledger) Snapshot(ctx context.Context, companyID string) (Snapshot, error) {
	var snap Snapshot
	for metric, dst := range map[string]*int64{
		MetricCandidates: &snap.Candidates,
		MetricSelected:   &snap.Selected,
		MetricRejected:   &snap.Rejected,
		MetricRedFlag:    &snap.RedFlags,
	} {
		v, err := l.store.Value(ctx, companyID, metric)
		if err != nil {
			return Snapshot{}, fmt.Errorf("ledger read %s: %w", metric, err)
		}
		*dst = v
	}
	return snap, nil
}

// Rebuild recomputes all counters for a company from the authoritative
// candidate records and swaps them in atomically, together with the applied
// event ids reconstructed from history. Used for repair/reconciliation.
func (l *Ledger) Rebuild(ctx context.Context, companyID string, records []pipeline.Candidate) error {
	counters := map[string]int64{
		MetricCandidates: 0,
		MetricSelected:   0,
		MetricRejected:   0,
		MetricRedFlag:    0,
	}
	applied := map[string][]string{}

	for i := range records {
		c := &records[i]
		counters[MetricCandidates]++
		applied[MetricCandidates] = append(applied[MetricCandidates], c.ID)

		if c.RedFlag {
			counters[MetricRedFlag]++
			applied[MetricRedFlag] = append(applied[MetricRedFlag], "flag:"+c.ID)
		}

		for _, h := range c.History {
			if m := metricForStatus(h.From); m != "" {
				counters[m]--
				applied[m] = append(applied[m], h.EventID)
			}
			if m := metricForStatus(h.To); m != "" {
				counters[m]++
				applied[m] = append(applied[m], h.EventID)
			}
		}
	}

	if err := l.store.Replace(ctx, companyID, counters, applied); err != nil {
		return fmt.Errorf("ledger rebuild %s: %w", companyID, err)
	}
	return nil
}
