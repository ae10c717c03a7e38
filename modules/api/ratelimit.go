package api

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig bounds requests per client IP.
type RateLimitConfig struct {
	RedisAddr         string
	RequestsPerWindow int
	WindowSize        time.Duration
	KeyPrefix         string
}

// rateResult is the outcome of one limiter check.
type rateResult struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// slidingWindowScript trims the window, counts it, and records the request
// when under the limit. It returns {allowed, remaining, retry_after_ms}.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local counter_key = KEYS[2]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_size_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local count = redis.call('ZCARD', key)

	if count < limit then
		local counter = redis.call('INCR', counter_key)
		redis.call('ZADD', key, now, now .. ':' .. counter)
		redis.call('PEXPIRE', key, window_size_ms)
		redis.call('PEXPIRE', counter_key, window_size_ms)
		return {1, limit - count - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local retry_after = 0
	if #oldest >= 2 then
		retry_after = oldest[2] + window_size_ms - now
	end
	return {0, 0, retry_after}
`)

// rateLimiter is a Redis sorted-set sliding window keyed by client IP.
type rateLimiter struct {
	client *redis.Client
	cfg    RateLimitConfig
	logger types.Logger
}

func newRateLimiter(client *redis.Client, cfg RateLimitConfig, logger types.Logger) *rateLimiter {
	return &rateLimiter{client: client, cfg: cfg, logger: logger}
}

func (l *rateLimiter) allow(ctx context.Context, key string) (*rateResult, error) {
	now := time.Now()
	redisKey := l.cfg.KeyPrefix + key

	values, err := slidingWindowScript.Run(ctx, l.client, []string{redisKey, redisKey + ":counter"},
		now.UnixMilli(),
		now.Add(-l.cfg.WindowSize).UnixMilli(),
		l.cfg.RequestsPerWindow,
		l.cfg.WindowSize.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(values) < 3 {
		return nil, fmt.Errorf("unexpected result length: %d", len(values))
	}

	res := &rateResult{
		Allowed:   values[0] == 1,
		Remaining: int(values[1]),
		ResetAt:   now.Add(l.cfg.WindowSize),
	}
	if !res.Allowed && values[2] > 0 {
		res.RetryAfter = time.Duration(values[2]) * time.Millisecond
	}
	return res, nil
}

// middleware limits by c.IP(). Limiter failures let the request through.
func (l *rateLimiter) middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := l.allow(c.Context(), c.IP())
		if err != nil {
			l.logger.Warn("Rate limiter unavailable, allowing request", "ip", c.IP(), "error", err)
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.RequestsPerWindow))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if result.Allowed {
			return c.Next()
		}

		retryAfter := max(int(result.RetryAfter.Seconds()), 1)
		c.Set("Retry-After", strconv.Itoa(retryAfter))
		return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
			Error: ErrorDetail{
				Code:    codeRateLimited,
				Message: fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds.", retryAfter),
			},
		})
	}
}
