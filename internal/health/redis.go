package health

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisChecker reports whether Redis is reachable. Both Redis consumers
// (rank cache, rate limit store) fail open, so readiness surfaces the check
// result without failing on it.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker wraps a Redis client for readiness checks.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{
		client: client,
	}
}

// HealthCheck sends a PING with the caller's deadline.
func (r *RedisChecker) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
