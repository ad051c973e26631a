package ratelimit

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/redis/go-redis/v9"
)

//go:embed rate_limit.lua
var rateLimitScript string

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// Result contains the outcome of a rate limit check
type Result struct {
	Allowed           bool  // Whether the request is allowed
	CurrentCount      int64 // Current count in the window
	Limit             int64 // The limit that was checked
	RetryAfterSeconds int64 // Seconds until the limit resets (0 if allowed)
}

// RateLimiter provides member-aware rate limiting using Redis + Lua
type RateLimiter struct {
	redis  *redis.Client
	script *redis.Script
	logger Logger
}

// NewRateLimiter creates a new rate limiter with embedded Lua script
func NewRateLimiter(redisClient *redis.Client, logger Logger) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		script: redis.NewScript(rateLimitScript),
		logger: logger,
	}
}

// CheckConnectionRequestLimit limits connection requests issued by one member
func (r *RateLimiter) CheckConnectionRequestLimit(ctx context.Context, memberID string, limit int64) (*Result, error) {
	key := fmt.Sprintf("rate_limit:member:%s:connection_requests", memberID)
	return r.checkLimit(ctx, key, limit, 60)
}

// CheckCodeMintLimit limits verification-code generation per admin
func (r *RateLimiter) CheckCodeMintLimit(ctx context.Context, adminID string, limit int64) (*Result, error) {
	key := fmt.Sprintf("rate_limit:admin:%s:code_mints", adminID)
	return r.checkLimit(ctx, key, limit, 60)
}

// checkLimit executes the rate limit Lua script atomically
func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int64, windowSec int) (*Result, error) {
	result, err := r.script.Run(ctx, r.redis, []string{key}, limit, windowSec).Result()
	if err != nil {
		r.logger.Error("rate limit check failed", "key", key, "error", err)
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		return nil, fmt.Errorf("unexpected rate limit script result: %v", result)
	}

	allowed, _ := values[0].(int64)
	count, _ := values[1].(int64)
	ttl, _ := values[2].(int64)

	res := &Result{
		Allowed:      allowed == 1,
		CurrentCount: count,
		Limit:        limit,
	}
	if !res.Allowed {
		res.RetryAfterSeconds = ttl
	}

	return res, nil
}
