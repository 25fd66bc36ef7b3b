package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"pullwatch.app/pullwatch/internal/model"
)

// Producer publishes record change events onto the change feed.
type Producer interface {
	Publish(ctx context.Context, event model.ChangeEvent) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Publish(ctx context.Context, event model.ChangeEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	image, err := json.Marshal(event.Record)
	if err != nil {
		return fmt.Errorf("marshal record image: %w", err)
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"change_event_id": event.ID,
			"kind":            string(event.Kind),
			"record":          string(image),
			"occurred_at":     event.OccurredAt.Format(time.RFC3339Nano),
		},
	}).Err(); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}

	p.logger.InfoContext(ctx, "published change event",
		"change_event_id", event.ID,
		"kind", event.Kind,
		"record_id", event.Record.ID)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
