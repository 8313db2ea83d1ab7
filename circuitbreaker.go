package superdense

import (
	"sync"
	"time"

	"github.com/theapemachine/errnie"
)

/*
BreakerState is the operating mode of a CircuitBreaker.
*/
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // Normal operation
	BreakerOpen                         // Rejecting runs
	BreakerHalfOpen                     // Letting a few runs through to probe the backend
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

/*
CircuitBreaker stops traffic to a failing backend. After maxFailures
consecutive failures it opens; once resetTimeout has passed it lets probes
through, and halfOpenMax successful probes close it again.

It also implements Regulator, so a Pool can refuse new jobs while the
backend behind it is known to be down.
*/
type CircuitBreaker struct {
	mu               sync.Mutex
	maxFailures      int
	resetTimeout     time.Duration
	halfOpenMax      int
	failureCount     int
	state            BreakerState
	openTime         time.Time
	halfOpenAttempts int
	metrics          *Metrics
}

/*
NewCircuitBreaker returns a closed breaker.

Parameters:
  - maxFailures: consecutive failures that open it (minimum 1)
  - resetTimeout: how long it stays open before probing
  - halfOpenMax: successful probes needed to close it (minimum 1)
*/
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration, halfOpenMax int) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures:  max(maxFailures, 1),
		resetTimeout: resetTimeout,
		halfOpenMax:  max(halfOpenMax, 1),
		state:        BreakerClosed,
	}
}

func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Observe records the latest pool metrics.
func (cb *CircuitBreaker) Observe(metrics *Metrics) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.metrics = metrics
}

func (cb *CircuitBreaker) Limit() bool {
	return !cb.Allow()
}

// Renormalize moves an expired open breaker to half-open.
func (cb *CircuitBreaker) Renormalize() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == BreakerOpen && time.Since(cb.openTime) > cb.resetTimeout {
		cb.toHalfOpen()
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++

	switch cb.state {
	case BreakerHalfOpen:
		// A failed probe reopens immediately.
		cb.open()
	case BreakerClosed:
		if cb.failureCount >= cb.maxFailures {
			cb.open()
		}
	}
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerHalfOpen:
		cb.halfOpenAttempts++
		if cb.halfOpenAttempts >= cb.halfOpenMax {
			cb.state = BreakerClosed
			cb.failureCount = 0
			cb.halfOpenAttempts = 0
			errnie.Info("circuit breaker closed from half-open")
		}
	case BreakerClosed:
		cb.failureCount = 0
	}
}

// Allow reports whether a run may proceed, moving an expired open breaker to half-open.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if time.Since(cb.openTime) > cb.resetTimeout {
			cb.toHalfOpen()
			return true
		}
		return false
	case BreakerHalfOpen:
		return cb.halfOpenAttempts < cb.halfOpenMax
	default:
		return false
	}
}

func (cb *CircuitBreaker) open() {
	cb.state = BreakerOpen
	cb.openTime = time.Now()
	errnie.Info("circuit breaker opened after %d failures", cb.failureCount)
}

func (cb *CircuitBreaker) toHalfOpen() {
	cb.state = BreakerHalfOpen
	cb.halfOpenAttempts = 0
	errnie.Info("circuit breaker half-open")
}
