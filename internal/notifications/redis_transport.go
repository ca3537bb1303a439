package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStreamTransport appends messages to a Redis stream for an external
// mailer to consume.
type RedisStreamTransport struct {
	rdb    redis.Cmdable
	stream string
	maxLen int64
}

func NewRedisStreamTransport(rdb redis.Cmdable, stream string) *RedisStreamTransport {
	if stream == "" {
		stream = "collabzone:notifications"
	}
	return &RedisStreamTransport{rdb: rdb, stream: stream, maxLen: 10000}
}

func (t *RedisStreamTransport) Name() string { return "redis" }

func (t *RedisStreamTransport) Send(ctx context.Context, msg Message) error {
	err := t.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: t.stream,
		MaxLen: t.maxLen,
		Approx: true,
		Values: map[string]any{
			"kind":       "registration.confirmation",
			"to":         msg.To,
			"subject":    msg.Subject,
			"html":       msg.HTMLBody,
			"enqueuedAt": time.Now().UTC().Format(time.RFC3339Nano),
		},
	}).Err()

	if err != nil {
		return fmt.Errorf("xadd %s: %w", t.stream, err)
	}
	return nil
}
