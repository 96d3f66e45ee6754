// Package rolecache holds resolved roles for a short TTL so each request
// does not hit the role source. Entries are dropped on explicit refresh.
package rolecache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"warranty/internal/identity/models"
	id "warranty/pkg/domain"
)

const roleKeyPrefix = "warranty:role:"

// Redis caches roles in Redis with SET EX.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func key(userID id.UserID) string {
	return roleKeyPrefix + userID.String()
}

// Get returns ok=false on a cache miss.
func (c *Redis) Get(ctx context.Context, userID id.UserID) (models.Role, bool, error) {
	raw, err := c.client.Get(ctx, key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	role, err := models.ParseRole(raw)
	if err != nil {
		// Corrupt entry; treat as a miss so the source is consulted.
		return "", false, nil
	}
	return role, true, nil
}

func (c *Redis) Set(ctx context.Context, userID id.UserID, role models.Role) error {
	return c.client.Set(ctx, key(userID), string(role), c.ttl).Err()
}

func (c *Redis) Invalidate(ctx context.Context, userID id.UserID) error {
	return c.client.Del(ctx, key(userID)).Err()
}
