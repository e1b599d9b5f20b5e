// Package streaming publishes pick lifecycle events onto Redis Streams for
// downstream audit/notification consumers. Grounded on the normalizer
// service's StreamPublisher (XavierBriggs-Services/normalizer/internal/publisher/stream.go)
// and the teacher's own writer's per-sport XAdd publishing
// (internal/writer/writer.go), generalized from per-sport stream keys to
// per-event-kind stream keys since this pipeline has one "sport" concern
// (league) already carried on the event itself.
package streaming

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/boompicks/pickengine/internal/domain"
)

// Publisher publishes pipeline lifecycle events to Redis Streams.
type Publisher struct {
	redis *redis.Client
}

func New(client *redis.Client) *Publisher {
	return &Publisher{redis: client}
}

const (
	streamPickEmitted = "picks.emitted"
	streamPickBlocked = "picks.blocked"
)

// PublishPickEmitted announces a newly emitted pick.
func (p *Publisher) PublishPickEmitted(ctx context.Context, pick domain.Pick) error {
	return p.publish(ctx, streamPickEmitted, pick)
}

// BlockedEvent carries the reason an event produced no pick.
type BlockedEvent struct {
	EventNormalizedID int64  `json:"event_normalized_id"`
	Reason            string `json:"reason"`
}

// PublishPickBlocked announces that an event was gated out of pick emission.
func (p *Publisher) PublishPickBlocked(ctx context.Context, ev BlockedEvent) error {
	return p.publish(ctx, streamPickBlocked, ev)
}

func (p *Publisher) publish(ctx context.Context, stream string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return domain.ErrInternal("marshal stream payload", err)
	}
	_, err = p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"data": string(data)},
	}).Result()
	if err != nil {
		return domain.ErrTransport("publish to stream "+stream, err)
	}
	return nil
}
