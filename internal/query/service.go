// Package query is the read side of the candidate pipeline: dashboard
// aggregates computed from the counter ledger. No method here mutates
// anything; reads are coherent to the last applied ledger write.
package query

import (
	"context"
	"math"

	"zepul/pipeline-service/internal/ledger"
)

// Placement-rate tier thresholds (percent). A company's performance row is
// tiered high at or above highRateThreshold and low strictly below
// lowRateThreshold.
const (
	highRateThreshold = 65
	lowRateThreshold  = 30
)

// Status tiers shown on the marketplace performance table.
const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

// JobCounter supplies the jobs-picked figure for performance rows.
type JobCounter interface {
	CountPickedJobs(ctx context.Context, companyID string) (int64, error)
}

// Breakdown is the screening-outcome chart payload: absolute counts plus
// percentage shares of all decided-or-flagged candidates.
type Breakdown struct {
	Selected    int64   `json:"selected"`
	Rejected    int64   `json:"rejected"`
	RedFlag     int64   `json:"redFlag"`
	SelectedPct float64 `json:"selectedPct"`
	RejectedPct float64 `json:"rejectedPct"`
	RedFlagPct  float64 `json:"redFlagPct"`
}

// PerformanceRow is one company's line in the marketplace performance table.
type PerformanceRow struct {
	JobsPicked    int64  `json:"jobsPicked"`
	Candidates    int64  `json:"candidates"`
	Selected      int64  `json:"selected"`
	Rejected      int64  `json:"rejected"`
	PlacementRate int    `json:"placementRate"`
	StatusTier    string `json:"statusTier"`
}

// Service answers dashboard aggregate queries.
type Service struct {
	ledger *ledger.Ledger
	jobs   JobCounter
}

// NewService returns a configured Service.
func NewService(l *ledger.Ledger, jobs JobCounter) *Service {
	return &Service{ledger: l, jobs: jobs}
}

// Breakdown returns the company's screening-outcome breakdown. A company
// with no decided candidates gets all-zero percentages, never NaN.
func (s *Service) Breakdown(ctx context.Context, companyID string) (Breakdown, error) {
	snap, err := s.ledger.Snapshot(ctx, companyID)
	if err != nil {
		return Breakdown{}, err
	}

	b := Breakdown{
		Selected: snap.Selected,
		Rejected: snap.Rejected,
		RedFlag:  snap.RedFlags,
	}

	total := snap.Selected + snap.Rejected + snap.RedFlags
	if total > 0 {
		b.SelectedPct = percent(snap.Selected, total)
		b.RejectedPct = percent(snap.Rejected, total)
		b.RedFlagPct = percent(snap.RedFlags, total)
	}
	return b, nil
}

// PerformanceRow returns the company's marketplace performance line. With no
// candidates the placement rate is 0 and the tier defaults to medium.
func (s *Service) PerformanceRow(ctx context.Context, companyID string) (PerformanceRow, error) {
	snap, err := s.ledger.Snapshot(ctx, companyID)
	if err != nil {
		return PerformanceRow{}, err
	}
	picked, err := s.jobs.CountPickedJobs(ctx, companyID)
	if err != nil {
		return PerformanceRow{}, err
	}

	row := PerformanceRow{
		JobsPicked: picked,
		Candidates: snap.Candidates,
		Selected:   snap.Selected,
		Rejected:   snap.Rejected,
		StatusTier: TierMedium,
	}
	if snap.Candidates > 0 {
		row.PlacementRate = int(math.Round(float64(snap.Selected) / float64(snap.Candidates) * 100))
		row.StatusTier = tierForRate(row.PlacementRate)
	}
	return row, nil
}

func tierForRate(rate int) string {
	switch {
	case rate >= highRateThreshold:
		return TierHigh
	case rate < lowRateThreshold:
		return TierLow
	default:
		return TierMedium
	}
}

func percent(part, total int64) float64 {
	return math.Round(float64(part)/float64(total)*1000) / 10
}
