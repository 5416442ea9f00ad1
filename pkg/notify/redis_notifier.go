package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier appends notifications to a Redis stream consumed by
// out-of-process delivery workers (push, e-mail).
type RedisNotifier struct {
	client *redis.Client
	stream string
	maxLen int64
}

// RedisNotifierConfig configures the stream notifier.
type RedisNotifierConfig struct {
	Addr     string
	Password string
	Stream   string
	MaxLen   int64
}

// NewRedisNotifier builds a Redis stream notifier.
func NewRedisNotifier(cfg RedisNotifierConfig) (*RedisNotifier, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr required")
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		stream = "revendo:notifications"
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &RedisNotifier{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password}),
		stream: stream,
		maxLen: maxLen,
	}, nil
}

// Notify appends the notification to the stream.
func (n *RedisNotifier) Notify(ctx context.Context, target, subject, body string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: n.maxLen,
		Approx: true,
		Values: map[string]any{
			"target":  target,
			"subject": subject,
			"body":    body,
		},
	}).Err()
}
