package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	redis "github.com/redis/go-redis/v9"
)

// RedisNotifier publishes notifications on a Redis pub/sub channel per
// company ("notifications:<company_id>"), which the dashboard's realtime
// service already subscribes to.
type RedisNotifier struct {
	client redis.UniversalClient
	logger *slog.Logger
}

func NewRedisNotifier(client redis.UniversalClient, logger *slog.Logger) *RedisNotifier {
	return &RedisNotifier{
		client: client,
		logger: logger.With("module", "redis_notifier"),
	}
}

// NewRedisNotifierFromURL connects to redisURL and verifies the connection.
func NewRedisNotifierFromURL(ctx context.Context, redisURL string, logger *slog.Logger) (*RedisNotifier, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisNotifier(client, logger), nil
}

func (n *RedisNotifier) Send(ctx context.Context, notification Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	channel := "notifications:" + notification.CompanyID

	err = n.client.Publish(ctx, channel, payload).Err()
	if err != nil {
		return fmt.Errorf("failed to publish notification to %s: %w", channel, err)
	}

	n.logger.DebugContext(ctx, "Published notification",
		"channel", channel,
		"notification_channel", notification.Channel)

	return nil
}

// Close releases the underlying client.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
