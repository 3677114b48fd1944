package query_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zepul/pipeline-service/internal/ledger"
	"zepul/pipeline-service/internal/pipeline"
	"zepul/pipeline-service/internal/query"
	"zepul/pipeline-service/internal/storage/memory"
)

type fixedJobCounter int64

func (f fixedJobCounter) CountPickedJobs(ctx context.Context, companyID string) (int64, error) {
	return int64(f), nil
}

// seed pushes counters to the given values using unique event ids.
func seed(t *testing.T, l *ledger.Ledger, companyID string, candidates, selected, rejected, flags int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < candidates; i++ {
		require.NoError(t, l.RecordNewCandidate(ctx, companyID, fmt.Sprintf("cand-%d", i)))
	}
	for i := 0; i < flags; i++ {
		require.NoError(t, l.RecordRedFlag(ctx, companyID, fmt.Sprintf("flag:cand-%d", i)))
	}
	for i := 0; i < selected; i++ {
		require.NoError(t, l.ApplyTransition(ctx, event(fmt.Sprintf("sel-%d", i), pipeline.StatusShortlisted)))
	}
	for i := 0; i < rejected; i++ {
		require.NoError(t, l.ApplyTransition(ctx, event(fmt.Sprintf("rej-%d", i), pipeline.StatusRejected)))
	}
}

func event(id string, to pipeline.Status) pipeline.TransitionEvent {
	return pipeline.TransitionEvent{
		ID:        id,
		CompanyID: "acme",
		From:      pipeline.StatusScreening,
		To:        to,
	}
}

func TestBreakdown_Empty(t *testing.T) {
	svc := query.NewService(ledger.New(memory.NewLedgerStore()), fixedJobCounter(0))

	b, err := svc.Breakdown(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, query.Breakdown{}, b, "no decided candidates means all-zero, never NaN")
}

func TestBreakdown_Percentages(t *testing.T) {
	l := ledger.New(memory.NewLedgerStore())
	seed(t, l, "acme", 4, 2, 1, 1)
	svc := query.NewService(l, fixedJobCounter(0))

	b, err := svc.Breakdown(context.Background(), "acme")
	require.NoError(t, err)
	assert.EqualValues(t, 2, b.Selected)
	assert.EqualValues(t, 1, b.Rejected)
	assert.EqualValues(t, 1, b.RedFlag)
	assert.InDelta(t, 50.0, b.SelectedPct, 0.01)
	assert.InDelta(t, 25.0, b.RejectedPct, 0.01)
	assert.InDelta(t, 25.0, b.RedFlagPct, 0.01)
}

func TestBreakdown_RoundsToOneDecimal(t *testing.T) {
	l := ledger.New(memory.NewLedgerStore())
	seed(t, l, "acme", 3, 2, 1, 0)
	svc := query.NewService(l, fixedJobCounter(0))

	b, err := svc.Breakdown(context.Background(), "acme")
	require.NoError(t, err)
	assert.InDelta(t, 66.7, b.SelectedPct, 0.01)
	assert.InDelta(t, 33.3, b.RejectedPct, 0.01)
}

func TestPerformanceRow_NoCandidates(t *testing.T) {
	svc := query.NewService(ledger.New(memory.NewLedgerStore()), fixedJobCounter(2))

	row, err := svc.PerformanceRow(context.Background(), "acme")
	require.NoError(t, err)
	assert.EqualValues(t, 2, row.JobsPicked)
	assert.Equal(t, 0, row.PlacementRate)
	assert.Equal(t, query.TierMedium, row.StatusTier, "empty companies are not penalized")
}

func TestPerformanceRow_TierBoundaries(t *testing.T) {
	cases := []struct {
		candidates int
		selected   int
		wantRate   int
		wantTier   string
	}{
		{100, 65, 65, query.TierHigh},   // at the high threshold
		{100, 64, 64, query.TierMedium}, // just under it
		{100, 30, 30, query.TierMedium}, // at the low threshold
		{100, 29, 29, query.TierLow},    // strictly under it
		{100, 100, 100, query.TierHigh},
		{100, 0, 0, query.TierLow},
		{3, 2, 67, query.TierHigh}, // rounding pushes 66.7 to 67
	}
	for _, c := range cases {
		l := ledger.New(memory.NewLedgerStore())
		seed(t, l, "acme", c.candidates, c.selected, 0, 0)
		svc := query.NewService(l, fixedJobCounter(1))

		row, err := svc.PerformanceRow(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, c.wantRate, row.PlacementRate, "%d/%d", c.selected, c.candidates)
		assert.Equal(t, c.wantTier, row.StatusTier, "%d/%d", c.selected, c.candidates)
	}
}
