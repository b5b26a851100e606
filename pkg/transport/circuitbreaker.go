package transport

import (
	"sync/atomic"
	"time"
)

// BreakerState is the circuit breaker's current disposition.
type BreakerState int32

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

// CircuitBreaker trips after a run of failures and recovers through a
// half-open probation period. All state transitions go through
// atomics, lock-free.
type CircuitBreaker struct {
	failureThreshold int32
	successThreshold int32
	openDuration     time.Duration

	state       atomic.Int32
	failures    atomic.Int32
	successes   atomic.Int32
	openAtNanos atomic.Int64
}

func NewCircuitBreaker(failureThreshold, successThreshold int, openDuration time.Duration) *CircuitBreaker {
	cb := &CircuitBreaker{
		failureThreshold: int32(failureThreshold),
		successThreshold: int32(successThreshold),
		openDuration:      openDuration,
	}
	cb.state.Store(int32(BreakerClosed))
	return cb
}

func (cb *CircuitBreaker) State() BreakerState {
	return BreakerState(cb.state.Load())
}

// CanExecute reports whether a call may proceed, transitioning
// Open→HalfOpen on the first call after openDuration has elapsed.
func (cb *CircuitBreaker) CanExecute(now time.Time) bool {
	switch BreakerState(cb.state.Load()) {
	case BreakerClosed, BreakerHalfOpen:
		return true
	case BreakerOpen:
		openAt := time.Unix(0, cb.openAtNanos.Load())
		if now.Sub(openAt) < cb.openDuration {
			return false
		}
		if cb.state.CompareAndSwap(int32(BreakerOpen), int32(BreakerHalfOpen)) {
			cb.successes.Store(0)
		}
		return true
	default:
		return false
	}
}

// RecordSuccess registers a successful call. In Closed it resets the
// failure counter; in HalfOpen, successThreshold consecutive
// successes close the breaker.
func (cb *CircuitBreaker) RecordSuccess() {
	switch BreakerState(cb.state.Load()) {
	case BreakerClosed:
		cb.failures.Store(0)
	case BreakerHalfOpen:
		n := cb.successes.Add(1)
		if n >= cb.successThreshold {
			cb.state.Store(int32(BreakerClosed))
			cb.failures.Store(0)
			cb.successes.Store(0)
		}
	}
}

// RecordFailure registers a failed call. In Closed, reaching
// failureThreshold trips to Open. In HalfOpen, any failure reopens and
// resets the open timer.
func (cb *CircuitBreaker) RecordFailure(now time.Time) {
	switch BreakerState(cb.state.Load()) {
	case BreakerClosed:
		n := cb.failures.Add(1)
		if n >= cb.failureThreshold {
			cb.trip(now)
		}
	case BreakerHalfOpen:
		cb.trip(now)
	}
}

func (cb *CircuitBreaker) trip(now time.Time) {
	cb.state.Store(int32(BreakerOpen))
	cb.openAtNanos.Store(now.UnixNano())
	cb.successes.Store(0)
}

// Reset unconditionally returns the breaker to Closed.
func (cb *CircuitBreaker) Reset() {
	cb.state.Store(int32(BreakerClosed))
	cb.failures.Store(0)
	cb.successes.Store(0)
}
