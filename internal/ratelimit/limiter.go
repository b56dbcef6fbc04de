// Package ratelimit implements sliding-window admission control backed by
// Redis, keyed by (endpoint class, client IP). The limiter fails open: when
// Redis is unreachable, requests are admitted rather than blocked.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limit is the budget for one endpoint class.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Decision is the outcome of an admission check. RetryAfter is only set when
// the request was denied.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter struct {
	rdb     *redis.Client
	classes map[string]Limit
	def     Limit
}

func New(rdb *redis.Client, classes map[string]Limit) *Limiter {
	return &Limiter{
		rdb:     rdb,
		classes: classes,
		def:     Limit{Requests: 60, Window: time.Minute},
	}
}

func (l *Limiter) limitFor(class string) Limit {
	if lim, ok := l.classes[class]; ok {
		return lim
	}
	return l.def
}

// Allow records one request for (class, ip) and reports whether it fits in
// the sliding window. Any Redis failure admits the request.
func (l *Limiter) Allow(ctx context.Context, class, ip string) Decision {
	lim := l.limitFor(class)
	key := fmt.Sprintf("ratelimit:%s:%s", class, ip)
	now := time.Now()
	windowStart := now.Add(-lim.Window)

	pipe := l.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("rate limiter unavailable, failing open", "class", class, "error", err)
		return Decision{Allowed: true}
	}

	count := int(countCmd.Val())
	if count >= lim.Requests {
		retryAfter := lim.Window
		if oldest := oldestCmd.Val(); len(oldest) > 0 {
			oldestAt := time.Unix(0, int64(oldest[0].Score))
			retryAfter = oldestAt.Add(lim.Window).Sub(now)
			if retryAfter < time.Second {
				retryAfter = time.Second
			}
		}
		return Decision{Allowed: false, RetryAfter: retryAfter}
	}

	add := l.rdb.Pipeline()
	add.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	add.Expire(ctx, key, lim.Window)
	if _, err := add.Exec(ctx); err != nil {
		slog.Warn("rate limiter unavailable, failing open", "class", class, "error", err)
		return Decision{Allowed: true}
	}

	return Decision{Allowed: true, Remaining: lim.Requests - count - 1}
}
