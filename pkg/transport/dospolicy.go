package transport

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DosPolicyConfig bounds per-connection and aggregate request
// behavior: frame rate per connection, total concurrent connections,
// and payload bytes accepted within a burst window.
type DosPolicyConfig struct {
	MaxFrameRatePerConn float64 // frames/sec
	FrameBurst          int
	MaxConcurrentConns  int
	MaxPayloadBurst     int64 // bytes accepted before ResetBurst
}

// DosPolicy tracks per-connection frame rate and payload burst state
// and reports violations so the load shedder and circuit breaker can
// react to a single abusive connection without punishing the rest.
type DosPolicy struct {
	cfg DosPolicyConfig

	mu          sync.Mutex
	frameLimit  map[string]*rate.Limiter
	burstBytes  map[string]int64
	activeConns int
}

func NewDosPolicy(cfg DosPolicyConfig) *DosPolicy {
	return &DosPolicy{
		cfg:        cfg,
		frameLimit: make(map[string]*rate.Limiter),
		burstBytes: make(map[string]int64),
	}
}

func (p *DosPolicy) frameBurst() int {
	if p.cfg.FrameBurst > 0 {
		return p.cfg.FrameBurst
	}
	return 1
}

// ConnOpened registers a new connection, rejecting it if
// MaxConcurrentConns is already reached.
func (p *DosPolicy) ConnOpened(connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfg.MaxConcurrentConns > 0 && p.activeConns >= p.cfg.MaxConcurrentConns {
		return false
	}
	p.activeConns++
	p.frameLimit[connID] = rate.NewLimiter(rate.Limit(p.cfg.MaxFrameRatePerConn), p.frameBurst())
	return true
}

// ConnClosed releases connID's tracked state.
func (p *DosPolicy) ConnClosed(connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.frameLimit[connID]; ok {
		p.activeConns--
		delete(p.frameLimit, connID)
		delete(p.burstBytes, connID)
	}
}

// ActiveConns reports the current number of open connections admitted
// by the policy.
func (p *DosPolicy) ActiveConns() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activeConns
}

// CheckFrame reports whether a frame of payloadBytes arriving on
// connID at now is within the configured frame rate and payload
// burst ceilings. A connID not seen through ConnOpened is tracked
// lazily, for callers that don't model connection lifecycle.
func (p *DosPolicy) CheckFrame(connID string, payloadBytes int64, now time.Time) bool {
	p.mu.Lock()
	limiter, ok := p.frameLimit[connID]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(p.cfg.MaxFrameRatePerConn), p.frameBurst())
		p.frameLimit[connID] = limiter
	}
	p.burstBytes[connID] += payloadBytes
	burst := p.burstBytes[connID]
	p.mu.Unlock()

	if p.cfg.MaxPayloadBurst > 0 && burst > p.cfg.MaxPayloadBurst {
		return false
	}
	return limiter.AllowN(now, 1)
}

// ResetBurst clears connID's accumulated payload burst counter. Called
// once per burst window by the caller's ticker.
func (p *DosPolicy) ResetBurst(connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.burstBytes[connID] = 0
}

// Enforce checks a frame against the policy and, on violation, records
// a circuit breaker failure for the connection's peer; on success it
// records a circuit breaker success. Either way it passes the active
// connection count to the shedder. This is the single entry point
// callers use per inbound frame.
func (p *DosPolicy) Enforce(connID string, payloadBytes int64, now time.Time, shedder *LoadShedder, breaker *CircuitBreaker) bool {
	ok := p.CheckFrame(connID, payloadBytes, now)
	if breaker != nil {
		if ok {
			breaker.RecordSuccess()
		} else {
			breaker.RecordFailure(now)
		}
	}
	if shedder != nil {
		shedder.SetConnCount(int64(p.ActiveConns()))
	}
	return ok
}
