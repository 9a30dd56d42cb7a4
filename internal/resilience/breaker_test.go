package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBreakerTransitions(t *testing.T) {
	now := time.Unix(0, 0)
	breaker := NewBreaker("mail", 2, 0.5, time.Minute)
	breaker.now = func() time.Time { return now }

	require.True(t, breaker.Allow())
	breaker.Report(false)
	require.True(t, breaker.Allow())
	breaker.Report(false)

	require.Equal(t, Open, breaker.State())
	require.False(t, breaker.Allow(), "breaker should open after threshold exceeded")

	now = now.Add(time.Minute)
	require.True(t, breaker.Allow(), "breaker should move to half-open after cool off")
	require.Equal(t, HalfOpen, breaker.State())
	breaker.Report(true)
	require.Equal(t, Closed, breaker.State())
}

func TestBackoffWithJitter(t *testing.T) {
	base := 100 * time.Millisecond
	require.Equal(t, base, Backoff(base, 1, 0))
	require.Equal(t, base*4, Backoff(base, 3, 0))

	d := Backoff(base, 2, 0.2)
	require.GreaterOrEqual(t, d, base*2-(base*2/5))
	require.LessOrEqual(t, d, base*2+(base*2/5))
}
