package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zepul/pipeline-service/internal/ledger"
	"zepul/pipeline-service/internal/pipeline"
	"zepul/pipeline-service/internal/storage/memory"
)

func event(id, candidateID string, from, to pipeline.Status) pipeline.TransitionEvent {
	return pipeline.TransitionEvent{
		ID:          id,
		CandidateID: candidateID,
		CompanyID:   "acme",
		From:        from,
		To:          to,
		At:          time.Now().UTC(),
		ActorID:     "rec-1",
	}
}

func TestApplyTransition_Idempotent(t *testing.T) {
	l := ledger.New(memory.NewLedgerStore())
	ctx := context.Background()

	ev := event("ev-1", "cand-1", pipeline.StatusScreening, pipeline.StatusShortlisted)
	require.NoError(t, l.ApplyTransition(ctx, ev))
	require.NoError(t, l.ApplyTransition(ctx, ev))
	require.NoError(t, l.ApplyTransition(ctx, ev))

	snap, err := l.Snapshot(ctx, "acme")
	require.NoError(t, err)
	assert.EqualValues(t, 1, snap.Selected, "re-delivered event must count once")
}

func TestRecordNewCandidate_Idempotent(t *testing.T) {
	l := ledger.New(memory.NewLedgerStore())
	ctx := context.Background()

	require.NoError(t, l.RecordNewCandidate(ctx, "acme", "cand-1"))
	require.NoError(t, l.RecordNewCandidate(ctx, "acme", "cand-1"))
	require.NoError(t, l.RecordNewCandidate(ctx, "acme", "cand-2"))

	snap, err := l.Snapshot(ctx, "acme")
	require.NoError(t, err)
	assert.EqualValues(t, 2, snap.Candidates)
}

func TestRecordRedFlag_Idempotent(t *testing.T) {
	l := ledger.New(memory.NewLedgerStore())
	ctx := context.Background()

	require.NoError(t, l.RecordRedFlag(ctx, "acme", "flag:cand-1"))
	require.NoError(t, l.RecordRedFlag(ctx, "acme", "flag:cand-1"))

	snap, err := l.Snapshot(ctx, "acme")
	require.NoError(t, err)
	assert.EqualValues(t, 1, snap.RedFlags)
}

// Terminal counters can never exceed the total candidate count, whatever
// sequence of events the ledger sees.
func TestSnapshot_Conservation(t *testing.T) {
	l := ledger.New(memory.NewLedgerStore())
	ctx := context.Background()

	require.NoError(t, l.RecordNewCandidate(ctx, "acme", "cand-1"))
	require.NoError(t, l.RecordNewCandidate(ctx, "acme", "cand-2"))
	require.NoError(t, l.RecordNewCandidate(ctx, "acme", "cand-3"))

	require.NoError(t, l.ApplyTransition(ctx, event("ev-1", "cand-1", pipeline.StatusScreening, pipeline.StatusShortlisted)))
	require.NoError(t, l.ApplyTransition(ctx, event("ev-2", "cand-2", pipeline.StatusSubmitted, pipeline.StatusRejected)))

	snap, err := l.Snapshot(ctx, "acme")
	require.NoError(t, err)
	assert.EqualValues(t, 3, snap.Candidates)
	assert.EqualValues(t, 1, snap.Selected)
	assert.EqualValues(t, 1, snap.Rejected)
	assert.LessOrEqual(t, snap.Selected+snap.Rejected, snap.Candidates)
}

func TestSnapshot_CompaniesAreIsolated(t *testing.T) {
	l := ledger.New(memory.NewLedgerStore())
	ctx := context.Background()

	require.NoError(t, l.RecordNewCandidate(ctx, "acme", "cand-1"))

	snap, err := l.Snapshot(ctx, "globex")
	require.NoError(t, err)
	assert.Equal(t, ledger.Snapshot{}, snap)
}

// Rebuild from candidate history must reproduce exactly the counters that
// incremental application produced, and must remain idempotent afterwards:
// replaying an already-counted event against the rebuilt store is a no-op.
func TestRebuild_MatchesIncrementalApplication(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	incremental := ledger.New(memory.NewLedgerStore())

	c1 := pipeline.NewCandidate("cand-1", "job-1", "acme", "Ada Lovelace", "rec-1", now)
	c2 := pipeline.NewCandidate("cand-2", "job-1", "acme", "Grace Hopper", "rec-1", now)
	c3 := pipeline.NewCandidate("cand-3", "job-1", "acme", "Edsger Dijkstra", "rec-1", now)
	c3.RedFlag = true

	ev1 := event("ev-1", c1.ID, pipeline.StatusScreening, pipeline.StatusScheduled)
	ev2 := event("ev-2", c1.ID, pipeline.StatusScheduled, pipeline.StatusShortlisted)
	ev3 := event("ev-3", c2.ID, pipeline.StatusScreening, pipeline.StatusRejected)
	c1.ApplyTransition(ev1)
	c1.ApplyTransition(ev2)
	c2.ApplyTransition(ev3)

	for _, c := range []*pipeline.Candidate{c1, c2, c3} {
		require.NoError(t, incremental.RecordNewCandidate(ctx, "acme", c.ID))
	}
	require.NoError(t, incremental.RecordRedFlag(ctx, "acme", "flag:"+c3.ID))
	for _, ev := range []pipeline.TransitionEvent{ev1, ev2, ev3} {
		require.NoError(t, incremental.ApplyTransition(ctx, ev))
	}

	want, err := incremental.Snapshot(ctx, "acme")
	require.NoError(t, err)

	rebuilt := ledger.New(memory.NewLedgerStore())
	require.NoError(t, rebuilt.Rebuild(ctx, "acme", []pipeline.Candidate{*c1, *c2, *c3}))

	got, err := rebuilt.Snapshot(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Replaying history events after a rebuild must not shift counters.
	require.NoError(t, rebuilt.ApplyTransition(ctx, ev2))
	require.NoError(t, rebuilt.RecordNewCandidate(ctx, "acme", c1.ID))
	require.NoError(t, rebuilt.RecordRedFlag(ctx, "acme", "flag:"+c3.ID))

	after, err := rebuilt.Snapshot(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, want, after)
}

// Rebuild replaces stale state outright, repairing drift.
func TestRebuild_RepairsDriftedCounters(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	store := memory.NewLedgerStore()
	l := ledger.New(store)

	// Simulate drift: a delta applied under an event id that no candidate
	// history contains.
	_, err := store.ApplyDelta(ctx, "acme", ledger.MetricSelected, 5, "phantom")
	require.NoError(t, err)

	c := pipeline.NewCandidate("cand-1", "job-1", "acme", "Ada Lovelace", "rec-1", now)
	require.NoError(t, l.Rebuild(ctx, "acme", []pipeline.Candidate{*c}))

	snap, err := l.Snapshot(ctx, "acme")
	require.NoError(t, err)
	assert.EqualValues(t, 1, snap.Candidates)
	assert.EqualValues(t, 0, snap.Selected)
}
