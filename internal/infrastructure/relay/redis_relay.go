package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"WikiFetch/internal/broadcast"
)

// DefaultChannel is the redis channel completions are published to.
const DefaultChannel = "wikifetch:article-fetched"

// RedisRelay forwards article.fetched events to a redis pub/sub channel so
// other processes can observe completions.
type RedisRelay struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewRedisRelay registers the target client and channel.
func NewRedisRelay(client *redis.Client, channel string, logger *slog.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisRelay{client: client, channel: channel, logger: logger}
}

// Attach subscribes the relay to bus. Relay failures are logged and never
// reach the fetch that produced the event.
func (r *RedisRelay) Attach(bus *broadcast.Bus) *broadcast.Subscription {
	return bus.Subscribe(broadcast.ArticleFetchedEvent, func(ctx context.Context, evt broadcast.Event) {
		if err := r.Relay(ctx, evt); err != nil && r.logger != nil {
			r.logger.Warn("relay article event", "title", evt.Title.String(), "error", err)
		}
	})
}

// Relay publishes evt as JSON.
func (r *RedisRelay) Relay(ctx context.Context, evt broadcast.Event) error {
	if r.client == nil {
		return fmt.Errorf("redis relay misconfigured")
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	receivers, err := r.client.Publish(ctx, r.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	if r.logger != nil {
		r.logger.Debug("relayed article event", "channel", r.channel, "receivers", receivers)
	}
	return nil
}

// Channel returns the redis channel name.
func (r *RedisRelay) Channel() string {
	return r.channel
}
