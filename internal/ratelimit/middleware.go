package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/ceitcs/buildbook/internal/common"
)

// Config describes how to derive a rate limit key and thresholds. A nil Key
// disables limiting.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// ByClient keys requests by scope and caller (user id, else client IP).
func ByClient(scope string) func(*http.Request) string {
	return func(r *http.Request) string {
		return scope + ":" + common.ClientKey(r)
	}
}

// Handler enforces a limit before delegating. Limiter failures fail open and
// are reported to OnError.
type Handler struct {
	Limiter Limiter
	Config  Config
	OnError func(error)
	Now     func() time.Time
}

// Middleware applies the limit to next.
func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Config.Key == nil || h.Limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, resetAt, err := h.Limiter.Allow(r.Context(), h.Config.Key(r), h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(max(h.Config.Max, 0)))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		retryAfter := h.retryAfter(resetAt)
		headers.Set("Retry-After", strconv.Itoa(retryAfter))
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, try again later", map[string]any{"retryAfter": retryAfter})
	})
}

func (h Handler) retryAfter(resetAt time.Time) int {
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	secs := math.Ceil(resetAt.Sub(now).Seconds())
	if secs < 0 {
		return 0
	}
	return int(secs)
}
