// Package notify publishes pipeline events over Redis pub/sub for the
// gateway to fan out (SSE, email). Delivery is fire-and-forget: publish
// failures are logged and never fail the originating request.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"zepul/pipeline-service/internal/pipeline"
)

// Channel names consumed by the gateway.
const (
	ChannelCandidateCreated       = "EVENT_CANDIDATE_CREATED"
	ChannelCandidateStatusChanged = "EVENT_CANDIDATE_STATUS_CHANGED"
)

// RedisNotifier implements pipeline.Notifier on a Redis client.
type RedisNotifier struct {
	rdb *redis.Client
}

// NewRedis returns a RedisNotifier.
func NewRedis(rdb *redis.Client) *RedisNotifier { return &RedisNotifier{rdb: rdb} }

// CandidateCreated publishes a creation event (non-fatal).
func (n *RedisNotifier) CandidateCreated(ctx context.Context, c *pipeline.Candidate) {
	event, _ := json.Marshal(map[string]string{
		"type":        ChannelCandidateCreated,
		"candidateId": c.ID,
		"jobId":       c.JobID,
		"companyId":   c.CompanyID,
	})
	if err := n.rdb.Publish(ctx, ChannelCandidateCreated, event).Err(); err != nil {
		slog.Warn("publish EVENT_CANDIDATE_CREATED failed", "err", err)
	}
}

// CandidateStatusChanged publishes a transition event (non-fatal).
func (n *RedisNotifier) CandidateStatusChanged(ctx context.Context, ev pipeline.TransitionEvent) {
	event, _ := json.Marshal(map[string]string{
		"type":        ChannelCandidateStatusChanged,
		"candidateId": ev.CandidateID,
		"companyId":   ev.CompanyID,
		"from":        string(ev.From),
		"to":          string(ev.To),
		"actorId":     ev.ActorID,
	})
	if err := n.rdb.Publish(ctx, ChannelCandidateStatusChanged, event).Err(); err != nil {
		slog.Warn("publish EVENT_CANDIDATE_STATUS_CHANGED failed", "err", err)
	}
}

// Nop discards all events. Used in tests and local development without
// Redis.
type Nop struct{}

func (Nop) CandidateCreated(context.Context, *pipeline.Candidate) {}

func (Nop) CandidateStatusChanged(context.Context, pipeline.TransitionEvent) {}
