package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "warranty:ratelimit:"

// Redis is a fixed-window counter shared by every replica. Each window gets
// its own key, incremented and given a TTL in one pipeline.
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, now: time.Now}
}

func (s *Redis) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	now := s.now()
	bucket := now.UnixNano() / int64(limit.Window)
	resetAt := time.Unix(0, (bucket+1)*int64(limit.Window))
	windowKey := redisKeyPrefix + key + ":" + strconv.FormatInt(bucket, 10)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, limit.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("rate limit counter: %w", err)
	}

	count := int(incr.Val())
	if count > limit.Requests {
		return &Result{Allowed: false, Limit: limit.Requests, ResetAt: resetAt}, nil
	}
	return &Result{
		Allowed:   true,
		Limit:     limit.Requests,
		Remaining: limit.Requests - count,
		ResetAt:   resetAt,
	}, nil
}
