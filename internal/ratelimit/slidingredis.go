package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether another event for key fits within max per window.
type Limiter interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error)
}

// slidingScript trims the window, then records the event only when it fits.
// It returns {allowed, count, oldestScoreMs}.
var slidingScript = redis.NewScript(`
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
local count = redis.call("ZCARD", KEYS[1])
if count >= tonumber(ARGV[3]) then
  local oldest = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
  return {0, count, oldest[2]}
end
redis.call("ZADD", KEYS[1], ARGV[2], ARGV[4])
redis.call("PEXPIRE", KEYS[1], ARGV[5])
local first = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
return {1, count + 1, first[2]}
`)

// SlidingWindow is a Redis sorted-set limiter. Rejected events are not
// recorded, so a client hammering the endpoint is not locked out forever.
type SlidingWindow struct {
	Client *redis.Client
	Prefix string
	Now    func() time.Time
}

// Allow implements Limiter.
func (l SlidingWindow) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, now.Add(window), nil
	}

	nowMs := now.UnixMilli()
	res, err := slidingScript.Run(ctx, l.Client, []string{l.Prefix + key},
		nowMs-window.Milliseconds(),
		nowMs,
		max,
		strconv.FormatInt(nowMs, 10)+":"+uuid.NewString(),
		window.Milliseconds(),
	).Slice()
	if err != nil {
		return false, 0, now.Add(window), fmt.Errorf("sliding window: %w", err)
	}
	if len(res) != 3 {
		return false, 0, now.Add(window), fmt.Errorf("sliding window: unexpected reply %v", res)
	}

	allowed, _ := res[0].(int64)
	count, _ := res[1].(int64)
	reset := now.Add(window)
	if s, ok := res[2].(string); ok {
		if oldest, err := strconv.ParseFloat(s, 64); err == nil {
			reset = time.UnixMilli(int64(oldest)).Add(window)
		}
	}
	remaining := max - int(count)
	if remaining < 0 || allowed == 0 {
		remaining = 0
	}
	return allowed == 1, remaining, reset, nil
}
