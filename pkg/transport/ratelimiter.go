package transport

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/claudefs/claudefs/pkg/claudeerr"
)

// RateLimiter is a token bucket with a maximum burst size and
// continuous refill, wrapping golang.org/x/time/rate.
type RateLimiter struct {
	mu                sync.Mutex
	limiter           *rate.Limiter
	requestsPerSecond float64
	burstSize         int
}

func NewRateLimiter(requestsPerSecond float64, burstSize int) *RateLimiter {
	return &RateLimiter{
		limiter:           rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize),
		requestsPerSecond: requestsPerSecond,
		burstSize:         burstSize,
	}
}

// TryAcquireN atomically subtracts n tokens if available.
func (r *RateLimiter) TryAcquireN(now time.Time, n int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limiter.AllowN(now, n)
}

// AvailableTokens reads the current bucket level without consuming.
func (r *RateLimiter) AvailableTokens(now time.Time) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limiter.TokensAt(now)
}

// Reset refills the bucket to burst.
func (r *RateLimiter) Reset(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiter = rate.NewLimiter(rate.Limit(r.requestsPerSecond), r.burstSize)
}

// CheckResult is the outcome of a composite rate check.
type CheckResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Composite holds a per-connection and a global token bucket; a
// request is Allowed only if both would permit one token.
type Composite struct {
	perConnection *RateLimiter
	global        *RateLimiter
}

func NewComposite(perConnection, global *RateLimiter) *Composite {
	return &Composite{perConnection: perConnection, global: global}
}

// Check reports Allowed or a Limited result whose RetryAfter is at
// least the wait time of the more-depleted bucket.
func (c *Composite) Check(now time.Time) CheckResult {
	connOK := c.perConnection.TryAcquireN(now, 1)
	globalOK := c.global.TryAcquireN(now, 1)
	if connOK && globalOK {
		return CheckResult{Allowed: true}
	}
	retryAfter := retryDelay(c.perConnection, now)
	if d := retryDelay(c.global, now); d > retryAfter {
		retryAfter = d
	}
	return CheckResult{Allowed: false, RetryAfter: retryAfter}
}

func retryDelay(r *RateLimiter, now time.Time) time.Duration {
	tokens := r.AvailableTokens(now)
	if tokens >= 1 {
		return 0
	}
	deficit := 1 - tokens
	rps := r.requestsPerSecond
	if rps <= 0 {
		return time.Hour
	}
	return time.Duration(deficit / rps * float64(time.Second))
}

// RateLimitedError wraps a Limited check result into the taxonomy.
func RateLimitedError(retryAfter time.Duration) error {
	e := claudeerr.New(claudeerr.DomainTransport, claudeerr.KindRateLimited, "rate limited")
	e.RetryAfter = retryAfter
	return e
}
