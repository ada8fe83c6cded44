// Package progress publishes per-job status events for best-effort listeners.
package progress

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/site2data/graph-worker/internal/domain"
	"github.com/site2data/graph-worker/internal/logger"
)

// Publisher emits progress events. Fire-and-forget: implementations log
// failures and never retry or propagate them.
type Publisher interface {
	Publish(ctx context.Context, event domain.ProgressEvent)
}

// RedisPublisher publishes JSON events to the per-job pub/sub channel
// progress:<jobId>.
type RedisPublisher struct {
	client *redis.Client
	log    *logger.Logger
}

func NewRedisPublisher(client *redis.Client, log *logger.Logger) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		log:    log.With("component", "progress_publisher"),
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, event domain.ProgressEvent) {
	channel := fmt.Sprintf("progress:%s", event.JobID)
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error("failed to encode progress event", "job_id", event.JobID, "error", err)
		return
	}
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		p.log.Error("failed to publish progress event",
			"job_id", event.JobID, "channel", channel, "error", err)
		return
	}
	p.log.Debug("published progress event",
		"job_id", event.JobID, "status", event.Status, "progress", event.Progress)
}
