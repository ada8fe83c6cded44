package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/site2data/graph-worker/internal/logger"
)

type StreamConsumerConfig struct {
	Stream    string
	DLQStream string
	Group     string
	Consumer  string
	PollBlock time.Duration
}

// StreamConsumer implements Consumer and DeadLetterer on Redis Streams.
// Multiple worker processes share the consumer group; each message is
// delivered to exactly one member, redelivered only after a crash before ack.
type StreamConsumer struct {
	client    *redis.Client
	stream    string
	dlqStream string
	group     string
	consumer  string
	pollBlock time.Duration
	log       *logger.Logger
}

// NewStreamConsumer verifies the connection and idempotently creates the
// consumer group. The group starts at stream id "0" so a worker started after
// the producer still consumes the backlog.
func NewStreamConsumer(ctx context.Context, client *redis.Client, cfg StreamConsumerConfig, log *logger.Logger) (*StreamConsumer, error) {
	if cfg.Stream == "" {
		return nil, errors.New("stream name is required")
	}
	if cfg.Group == "" {
		return nil, errors.New("consumer group name is required")
	}
	if cfg.Consumer == "" {
		return nil, errors.New("consumer identity is required")
	}
	if cfg.PollBlock <= 0 {
		cfg.PollBlock = 5 * time.Second
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	consumer := &StreamConsumer{
		client:    client,
		stream:    cfg.Stream,
		dlqStream: cfg.DLQStream,
		group:     cfg.Group,
		consumer:  cfg.Consumer,
		pollBlock: cfg.PollBlock,
		log:       log.With("component", "stream_consumer", "stream", cfg.Stream, "group", cfg.Group),
	}
	if err := consumer.ensureGroup(ctx); err != nil {
		return nil, err
	}
	return consumer, nil
}

func (c *StreamConsumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err == nil {
		c.log.Info("created consumer group")
		return nil
	}
	if strings.Contains(err.Error(), "BUSYGROUP") {
		c.log.Debug("consumer group already exists")
		return nil
	}
	return fmt.Errorf("ensure consumer group: %w", err)
}

// ReadOne long-polls for a single message never before delivered to this
// consumer. Returns (nil, nil) when the poll times out with no message.
func (c *StreamConsumer) ReadOne(ctx context.Context) (*Message, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    1,
		Block:    c.pollBlock,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	for _, stream := range streams {
		for _, item := range stream.Messages {
			return toMessage(item), nil
		}
	}
	return nil, nil
}

// Ack confirms terminal handling. The entry stays in the stream for history;
// only the pending reference is cleared.
func (c *StreamConsumer) Ack(ctx context.Context, messageID string) error {
	if err := c.client.XAck(ctx, c.stream, c.group, messageID).Err(); err != nil {
		return fmt.Errorf("xack %s: %w", messageID, err)
	}
	return nil
}

// DeadLetter copies an unprocessable message to the dead-letter stream.
func (c *StreamConsumer) DeadLetter(ctx context.Context, message Message, reason string) error {
	if c.dlqStream == "" {
		return nil
	}
	values := map[string]interface{}{
		"stream_id": message.ID,
		"error":     reason,
		"moved_at":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	for key, value := range message.Values {
		if _, reserved := values[key]; !reserved {
			values[key] = value
		}
	}
	if err := c.client.XAdd(ctx, &redis.XAddArgs{Stream: c.dlqStream, Values: values}).Err(); err != nil {
		return fmt.Errorf("dead-letter %s: %w", message.ID, err)
	}
	return nil
}

func toMessage(item redis.XMessage) *Message {
	message := &Message{
		ID:     item.ID,
		Values: item.Values,
	}
	switch value := item.Values["jobId"].(type) {
	case string:
		message.JobID = value
	case []byte:
		message.JobID = string(value)
	}
	return message
}
