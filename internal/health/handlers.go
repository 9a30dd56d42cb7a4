package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	redis "github.com/redis/go-redis/v9"
)

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady flips readiness. The API clears it when shutdown begins so load
// balancers stop routing new traffic while in-flight requests drain.
func SetReady(v bool) { ready.Store(v) }

// Checker probes one dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// RedisChecker pings a Redis client.
type RedisChecker struct {
	Client *redis.Client
}

// Name implements Checker.
func (RedisChecker) Name() string { return "redis" }

// Check implements Checker.
func (c RedisChecker) Check(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checkers []Checker
	Timeout  time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency probes. With no checkers the
// service is ready as long as it is not shutting down.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	healthy := ready.Load()
	if !healthy {
		status["status"] = "shutting down"
	}
	for _, c := range h.Checkers {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout())
		err := c.Check(ctx)
		cancel()
		if err != nil {
			status[c.Name()] = err.Error()
			healthy = false
			continue
		}
		status[c.Name()] = "ok"
	}
	if healthy {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
	} else {
		if status["status"] == "ok" {
			status["status"] = "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) timeout() time.Duration {
	if h.Timeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.Timeout
}
