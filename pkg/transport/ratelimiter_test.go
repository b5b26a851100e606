package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterTryAcquireN(t *testing.T) {
	rl := NewRateLimiter(10, 5)
	now := time.Now()
	require.True(t, rl.TryAcquireN(now, 5))
	require.False(t, rl.TryAcquireN(now, 1))
}

func TestRateLimiterReset(t *testing.T) {
	rl := NewRateLimiter(10, 5)
	now := time.Now()
	rl.TryAcquireN(now, 5)
	rl.Reset(now)
	require.True(t, rl.TryAcquireN(now, 5))
}

func TestCompositeRequiresBothBuckets(t *testing.T) {
	perConn := NewRateLimiter(1000, 5)
	global := NewRateLimiter(1000, 1)
	c := NewComposite(perConn, global)

	now := time.Now()
	res := c.Check(now)
	require.True(t, res.Allowed)

	res = c.Check(now)
	require.False(t, res.Allowed)
	require.GreaterOrEqual(t, res.RetryAfter, time.Duration(0))
}

func TestTokensConsumedBoundedByBurstPlusRefill(t *testing.T) {
	rl := NewRateLimiter(10, 5)
	now := time.Now()
	consumed := 0
	for i := 0; i < 5; i++ {
		if rl.TryAcquireN(now, 1) {
			consumed++
		}
	}
	require.LessOrEqual(t, consumed, 5)
}
