package memory

import (
	"context"
	"strings"
	"sync"
)

// LedgerStore is an in-memory ledger.Store. Counter adjustment and
// applied-event recording happen under one lock, mirroring the transactional
// guarantee of the Postgres implementation.
type LedgerStore struct {
	mu       sync.Mutex
	counters map[string]int64
	applied  map[string]map[string]struct{}
}

// NewLedgerStore returns an empty LedgerStore.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		counters: make(map[string]int64),
		applied:  make(map[string]map[string]struct{}),
	}
}

func ledgerKey(companyID, metric string) string { return companyID + "|" + metric }

// ApplyDelta adjusts the counter unless eventID was already applied to this
// (companyID, metric) key.
func (s *LedgerStore) ApplyDelta(ctx context.Context, companyID, metric string, delta int64, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := ledgerKey(companyID, metric)
	ids, ok := s.applied[k]
	if !ok {
		ids = make(map[string]struct{})
		s.applied[k] = ids
	}
	if _, dup := ids[eventID]; dup {
		return false, nil
	}
	ids[eventID] = struct{}{}
	s.counters[k] += delta
	return true, nil
}

// Value reads a counter; missing keys read as zero.
func (s *LedgerStore) Value(ctx context.Context, companyID, metric string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[ledgerKey(companyID, metric)], nil
}

// Replace swaps all of the company's counters and applied-event sets.
func (s *LedgerStore) Replace(ctx context.Context, companyID string, counters map[string]int64, applied map[string][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := companyID + "|"
	for k := range s.counters {
		if strings.HasPrefix(k, prefix) {
			delete(s.counters, k)
		}
	}
	for k := range s.applied {
		if strings.HasPrefix(k, prefix) {
			delete(s.applied, k)
		}
	}

	for metric, v := range counters {
		s.counters[ledgerKey(companyID, metric)] = v
	}
	for metric, ids := range applied {
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		s.applied[ledgerKey(companyID, metric)] = set
	}
	return nil
}
