package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ztas-io/analytics-api/pkg/database"
)

// RateLimiter implements a fixed-window counter per hashed client key in
// Redis. INCR plus a first-hit EXPIRE is atomic enough that a window can
// never admit more than the configured limit, even across concurrent
// invocations.
type RateLimiter struct {
	redis *database.Redis
}

// RateLimitResult reports the outcome of one admission check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *database.Redis) *RateLimiter {
	return &RateLimiter{redis: redis}
}

// ClientKey hashes a client identifier (usually an IP) so raw addresses
// never appear as Redis keys.
func ClientKey(identifier string) string {
	sum := sha256.Sum256([]byte(identifier))
	return hex.EncodeToString(sum[:8])
}

// Allow admits or rejects one request for the named limiter and client.
// Distinct names share no state because the name is part of the key. The
// counter resets when the window key expires.
func (r *RateLimiter) Allow(ctx context.Context, name, client string, limit int, window time.Duration) (RateLimitResult, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", name, ClientKey(client))

	count, err := r.redis.Client.Incr(ctx, key).Result()
	if err != nil {
		return RateLimitResult{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := r.redis.Client.Expire(ctx, key, window).Err(); err != nil {
			return RateLimitResult{}, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	if count > int64(limit) {
		ttl, err := r.redis.Client.TTL(ctx, key).Result()
		if err != nil || ttl < 0 {
			ttl = window
		}
		return RateLimitResult{Allowed: false, Remaining: 0, RetryAfter: ttl}, nil
	}

	return RateLimitResult{Allowed: true, Remaining: limit - int(count)}, nil
}
