package httpx

import (
	"context"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	redisRateLimitPrefix  = "balancehub:ratelimit:"
	redisRateLimitTimeout = 250 * time.Millisecond
)

// redisRateLimiter counts hits per fixed window in Redis so every API
// replica shares the same budget. When Redis cannot answer in time the
// request is allowed.
type redisRateLimiter struct {
	client  redis.Cmdable
	logger  *slog.Logger
	timeout time.Duration
}

// NewRedisRateLimiter shares client with the OAuth state store; closing the
// client is left to main.
func NewRedisRateLimiter(client redis.Cmdable, logger *slog.Logger) RateLimiter {
	return &redisRateLimiter{client: client, logger: logger, timeout: redisRateLimitTimeout}
}

func (rl *redisRateLimiter) Allow(key string, limit int, window time.Duration) rateDecision {
	if limit <= 0 {
		return rateDecision{allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), rl.timeout)
	defer cancel()

	// The first hit opens the window; later hits only read its remaining TTL.
	windowKey := redisRateLimitPrefix + key
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, windowKey)
		pipe.ExpireNX(ctx, windowKey, window)
		ttl = pipe.PTTL(ctx, windowKey)
		return nil
	})
	if err != nil {
		rl.warn(key, err)
		return rateDecision{allowed: true}
	}

	hits := int(incr.Val())
	remaining := ttl.Val()
	if remaining <= 0 || remaining > window {
		remaining = window
	}
	return rateDecision{
		allowed:   hits <= limit,
		count:     hits,
		windowEnd: time.Now().Add(remaining),
	}
}

func (rl *redisRateLimiter) Close() {}

func (rl *redisRateLimiter) warn(key string, err error) {
	if rl.logger != nil {
		rl.logger.Warn("rate limit check skipped", "key", key, "error", err)
	}
}
