// Package reconciler wires up the cron job that periodically rebuilds the
// counter ledger from authoritative candidate records. The ledger is a
// cache; this loop is the repair path that proves it.
package reconciler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"zepul/pipeline-service/internal/ledger"
	"zepul/pipeline-service/internal/pipeline"
)

// Reconciler wraps robfig/cron and manages the rebuild loop.
type Reconciler struct {
	cron       *cron.Cron
	candidates pipeline.CandidateStore
	ledger     *ledger.Ledger
	spec       string // cron spec, e.g. "@every 6h"
}

// New creates a Reconciler that fires every intervalHours hours.
func New(candidates pipeline.CandidateStore, l *ledger.Ledger, intervalHours int) *Reconciler {
	return &Reconciler{
		cron:       cron.New(cron.WithLogger(cron.DefaultLogger)),
		candidates: candidates,
		ledger:     l,
		spec:       fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler.
func (r *Reconciler) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.spec, func() {
		r.runRebuild(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	r.cron.Start()
	log.Printf("[reconciler] Cron started — spec: %s", r.spec)
	return nil
}

// Stop gracefully shuts down the scheduler.
func (r *Reconciler) Stop() {
	r.cron.Stop()
	log.Println("[reconciler] Cron stopped")
}

// runRebuild recomputes every company's counters from candidate history.
func (r *Reconciler) runRebuild(ctx context.Context) {
	log.Println("[reconciler] Rebuild cycle started")

	companyIDs, err := r.candidates.CompanyIDs(ctx)
	if err != nil {
		log.Printf("[reconciler] CompanyIDs error: %v", err)
		return
	}
	if len(companyIDs) == 0 {
		log.Println("[reconciler] No companies with candidates — nothing to rebuild")
		return
	}

	var rebuilt, failed int
	for _, companyID := range companyIDs {
		records, err := r.candidates.ListByCompany(ctx, companyID)
		if err != nil {
			log.Printf("[reconciler] ListByCompany error for %s: %v — continuing", companyID, err)
			failed++
			continue
		}
		if err := r.ledger.Rebuild(ctx, companyID, records); err != nil {
			log.Printf("[reconciler] Rebuild error for %s: %v — continuing", companyID, err)
			failed++
			continue
		}
		rebuilt++
	}

	log.Printf("[reconciler] Rebuild cycle complete — rebuilt=%d failed=%d", rebuilt, failed)
}
