// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimitStore implements RateLimitStore backed by Redis, so rate
// limit state is shared across API replicas. It uses the same fixed window
// counter algorithm as the in-memory store: INCR on a per-key counter with
// an expiry set on the first request of the window.
//
// The store fails open: if Redis is unreachable the request is allowed and
// the error is counted, so a Redis outage degrades rate limiting rather than
// taking down the API.
type RedisRateLimitStore struct {
	client  *redis.Client
	metrics *Metrics
}

// NewRedisRateLimitStore creates a Redis-backed rate limit store.
// A nil metrics disables fail-open error counting.
func NewRedisRateLimitStore(client *redis.Client, metrics *Metrics) *RedisRateLimitStore {
	return &RedisRateLimitStore{
		client:  client,
		metrics: metrics,
	}
}

// ratelimitKeyPrefix namespaces rate limit counters in Redis.
const ratelimitKeyPrefix = "ratelimit:"

// Allow checks if a request from the given key should be allowed.
// Implements the RateLimitStore interface.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int) {
	redisKey := ratelimitKeyPrefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		s.metrics.IncRateLimitRedisErrors()
		return true, 0
	}

	if count == 1 {
		// First request of the window starts its expiry. If this EXPIRE
		// fails the counter would never reset, so treat it like an outage
		// and drop the key on a best-effort basis.
		if err := s.client.Expire(ctx, redisKey, config.WindowDuration).Err(); err != nil {
			s.metrics.IncRateLimitRedisErrors()
			s.client.Del(ctx, redisKey)
			return true, 0
		}
	}

	if count <= int64(config.RequestsPerWindow) {
		return true, 0
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		return false, 1
	}
	retryAfter := int(ttl / time.Second)
	if retryAfter <= 0 {
		retryAfter = 1
	}
	return false, retryAfter
}
