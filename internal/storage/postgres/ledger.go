package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerStore implements ledger.Store. Each delta runs in one transaction:
// the dedup insert into ledger_applied_events and the counter upsert either
// both commit or neither does, and the counter adjustment itself is a
// row-level atomic upsert, so per-(company, metric) contention never needs
// an application lock.
type LedgerStore struct {
	pool *pgxpool.Pool
}

// NewLedgerStore returns a LedgerStore on pool.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// ApplyDelta adjusts (companyID, metric) by delta unless eventID was already
// applied to that key.
func (s *LedgerStore) ApplyDelta(ctx context.Context, companyID, metric string, delta int64, eventID string) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO ledger_applied_events (company_id, metric, event_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		companyID, metric, eventID,
	)
	if err != nil {
		return false, fmt.Errorf("record applied event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil // already applied — no-op
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO ledger_counters (company_id, metric, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (company_id, metric)
		 DO UPDATE SET value = ledger_counters.value + EXCLUDED.value`,
		companyID, metric, delta,
	); err != nil {
		return false, fmt.Errorf("adjust counter: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit ledger tx: %w", err)
	}
	return true, nil
}

// Value reads a counter; missing rows read as zero.
func (s *LedgerStore) Value(ctx context.Context, companyID, metric string) (int64, error) {
	var v int64
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM ledger_counters WHERE company_id = $1 AND metric = $2`,
		companyID, metric,
	).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	}
	return v, nil
}

// Replace atomically swaps all of the company's counters and applied-event
// sets. Used only by ledger rebuilds.
func (s *LedgerStore) Replace(ctx context.Context, companyID string, counters map[string]int64, applied map[string][]string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rebuild tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM ledger_applied_events WHERE company_id = $1`, companyID); err != nil {
		return fmt.Errorf("clear applied events: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM ledger_counters WHERE company_id = $1`, companyID); err != nil {
		return fmt.Errorf("clear counters: %w", err)
	}

	for metric, v := range counters {
		if _, err := tx.Exec(ctx,
			`INSERT INTO ledger_counters (company_id, metric, value) VALUES ($1, $2, $3)`,
			companyID, metric, v,
		); err != nil {
			return fmt.Errorf("insert counter %s: %w", metric, err)
		}
	}
	for metric, ids := range applied {
		for _, id := range ids {
			if _, err := tx.Exec(ctx,
				`INSERT INTO ledger_applied_events (company_id, metric, event_id)
				 VALUES ($1, $2, $3)
				 ON CONFLICT DO NOTHING`,
				companyID, metric, id,
			); err != nil {
				return fmt.Errorf("insert applied event: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rebuild tx: %w", err)
	}
	return nil
}
