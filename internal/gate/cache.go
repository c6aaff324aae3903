// AngelaMos | 2026
// cache.go

package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// unsetSentinel caches "account exists but has no role yet" (and
// "account does not exist"), which would otherwise be indistinguishable
// from a cache miss.
const unsetSentinel = "none"

const cachePrefix = "gate:role:"

// RoleCache keeps recent role lookups in Redis so dashboard navigation
// does not hit Postgres on every request. Entries expire on a short TTL
// and are invalidated explicitly when a role is assigned.
type RoleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoleCache(client *redis.Client, ttl time.Duration) *RoleCache {
	return &RoleCache{client: client, ttl: ttl}
}

func (c *RoleCache) Get(
	ctx context.Context,
	accountID string,
) (role string, ok bool, err error) {
	val, err := c.client.Get(ctx, cachePrefix+accountID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("role cache get: %w", err)
	}

	if val == unsetSentinel {
		return "", true, nil
	}
	return val, true, nil
}

func (c *RoleCache) Set(
	ctx context.Context,
	accountID, role string,
) error {
	val := role
	if val == "" {
		val = unsetSentinel
	}

	if err := c.client.Set(ctx, cachePrefix+accountID, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("role cache set: %w", err)
	}
	return nil
}

func (c *RoleCache) Invalidate(ctx context.Context, accountID string) error {
	if err := c.client.Del(ctx, cachePrefix+accountID).Err(); err != nil {
		return fmt.Errorf("role cache invalidate: %w", err)
	}
	return nil
}
