package otp

import (
	"context"
	"time"

	"github.com/hirelane/hirelane-identity/internal/config"
	"github.com/redis/go-redis/v9"
)

// SendLimiter throttles code sends per (identifier, purpose).
// A positive wait means the send is rejected for that long.
type SendLimiter interface {
	Allow(ctx context.Context, identifier string, purpose Purpose) (time.Duration, error)
}

// RedisLimiter enforces a cooldown between sends and a cap per window.
// Exceeding the cap blocks the pair for three windows.
type RedisLimiter struct {
	client      redis.UniversalClient
	cooldown    time.Duration
	window      time.Duration
	maxInWindow int
}

// NewRedisLimiter constructs a RedisLimiter from the redis section.
func NewRedisLimiter(client redis.UniversalClient, cfg config.RedisConfig) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		cooldown:    cfg.SendCooldown,
		window:      cfg.SendWindow,
		maxInWindow: cfg.SendMaxInWindow,
	}
}

func limiterKey(kind, identifier string, purpose Purpose) string {
	return "otp:" + kind + ":" + string(purpose) + ":" + identifier
}

// Allow implements SendLimiter.
func (l *RedisLimiter) Allow(ctx context.Context, identifier string, purpose Purpose) (time.Duration, error) {
	blockKey := limiterKey("block", identifier, purpose)
	lastKey := limiterKey("last", identifier, purpose)
	countKey := limiterKey("count", identifier, purpose)

	if ttl, errTTL := l.client.TTL(ctx, blockKey).Result(); errTTL != nil {
		return 0, errTTL
	} else if ttl > 0 {
		return ttl, nil
	}
	if ttl, errTTL := l.client.TTL(ctx, lastKey).Result(); errTTL != nil {
		return 0, errTTL
	} else if ttl > 0 {
		return ttl, nil
	}

	count, errIncr := l.client.Incr(ctx, countKey).Result()
	if errIncr != nil {
		return 0, errIncr
	}
	if count == 1 {
		if errExpire := l.client.Expire(ctx, countKey, l.window).Err(); errExpire != nil {
			return 0, errExpire
		}
	}
	if l.maxInWindow > 0 && int(count) > l.maxInWindow {
		block := 3 * l.window
		if errSet := l.client.Set(ctx, blockKey, "1", block).Err(); errSet != nil {
			return 0, errSet
		}
		return block, nil
	}

	if l.cooldown > 0 {
		if errSet := l.client.Set(ctx, lastKey, "1", l.cooldown).Err(); errSet != nil {
			return 0, errSet
		}
	}
	return 0, nil
}
