package pipeline

import "time"

// Candidate represents one person's application to one job. It is the
// authoritative record: the counter ledger is a projection rebuildable from
// History.
type Candidate struct {
	ID        string    `json:"id"`
	JobID     string    `json:"jobId"`
	CompanyID string    `json:"companyId"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Score     *int      `json:"score"`
	Notes     *string   `json:"notes"`
	RedFlag   bool      `json:"redFlag"`
	// Version is the optimistic concurrency token, incremented by the store
	// on every successful update.
	Version   int64          `json:"version"`
	History   []HistoryEntry `json:"history"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// HistoryEntry is one append-only status change. EventID carries the
// transition event id so ledger application stays idempotent across retries
// and rebuilds.
type HistoryEntry struct {
	EventID string    `json:"eventId"`
	From    Status    `json:"from,omitempty"`
	To      Status    `json:"to"`
	At      time.Time `json:"at"`
	ActorID string    `json:"actorId"`
}

// TransitionEvent is emitted for every successful status change and drives
// the counter ledger update.
type TransitionEvent struct {
	ID          string
	CandidateID string
	CompanyID   string
	From        Status
	To          Status
	At          time.Time
	ActorID     string
}

// Job links a posting to its owning company. Candidates cache the company id
// at creation time so aggregation never needs a join back through jobs.
type Job struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	Title     string `json:"title"`
}

// NewCandidate builds a Candidate at the initial SCREENING status with a
// single synthetic history entry. eventID doubles as the creation event id
// used to key the ledger's candidates counter.
func NewCandidate(id, jobID, companyID, name, actorID string, now time.Time) *Candidate {
	return &Candidate{
		ID:        id,
		JobID:     jobID,
		CompanyID: companyID,
		Name:      name,
		Status:    StatusScreening,
		Version:   1,
		History: []HistoryEntry{{
			EventID: id,
			To:      StatusScreening,
			At:      now,
			ActorID: actorID,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplyTransition mutates the candidate with an already-validated transition
// event: appends to History and updates Status. Only the engine calls this.
func (c *Candidate) ApplyTransition(ev TransitionEvent) {
	c.History = append(c.History, HistoryEntry{
		EventID: ev.ID,
		From:    ev.From,
		To:      ev.To,
		At:      ev.At,
		ActorID: ev.ActorID,
	})
	c.Status = ev.To
	c.UpdatedAt = ev.At
}

// LastTransition returns the most recent history entry. The synthetic
// creation entry guarantees History is never empty.
func (c *Candidate) LastTransition() HistoryEntry {
	return c.History[len(c.History)-1]
}
