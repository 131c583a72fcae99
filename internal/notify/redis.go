package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannelPrefix namespaces user channels in Redis.
const DefaultRedisChannelPrefix = "taskflow:user:"

// RedisBus is a Bus backed by Redis pub/sub, so events published on one
// server instance reach subscribers connected to any other.
type RedisBus struct {
	client redis.UniversalClient
	prefix string
	buffer int
	logger *slog.Logger
}

var _ Bus = (*RedisBus)(nil)

// NewRedisBus creates a RedisBus on an existing client. The bus owns the
// client and closes it in Close.
func NewRedisBus(client redis.UniversalClient, logger *slog.Logger) *RedisBus {
	return &RedisBus{
		client: client,
		prefix: DefaultRedisChannelPrefix,
		buffer: DefaultSubscriptionBuffer,
		logger: logger.With("component", "notify_redis"),
	}
}

// ConnectRedis opens a client for url and verifies it with a PING.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// ChannelName returns the Redis channel for a user.
func (b *RedisBus) ChannelName(channel uuid.UUID) string {
	return b.prefix + channel.String()
}

// Publish implements Bus.
func (b *RedisBus) Publish(ctx context.Context, channel uuid.UUID, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.client.Publish(ctx, b.ChannelName(channel), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// Subscribe implements Bus. It returns once Redis has confirmed the
// subscription, so events published afterwards are not missed.
func (b *RedisBus) Subscribe(ctx context.Context, channel uuid.UUID) (*Subscription, error) {
	name := b.ChannelName(channel)
	ps := b.client.Subscribe(ctx, name)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", name, err)
	}

	out := make(chan Event, b.buffer)
	done := make(chan struct{})

	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("discarding undecodable event", "channel", name, "error", err)
					continue
				}
				select {
				case out <- ev:
				default:
					b.logger.Warn("subscriber buffer full, dropping event", "channel", name, "event", ev.Name)
				}
			}
		}
	}()

	return newSubscription(out, func() {
		close(done)
		if err := ps.Close(); err != nil {
			b.logger.Debug("error closing redis subscription", "channel", name, "error", err)
		}
	}), nil
}

// Close implements Bus.
func (b *RedisBus) Close() error {
	return b.client.Close()
}
