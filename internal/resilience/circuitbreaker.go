// Package resilience provides a circuit breaker for upstream broker calls.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "CLOSED"    // normal operation
	CircuitOpen     CircuitState = "OPEN"      // failing, rejecting requests
	CircuitHalfOpen CircuitState = "HALF_OPEN" // probing for recovery
)

// ErrCircuitOpen is returned when the circuit is open and requests are
// rejected without reaching the upstream.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerConfig holds circuit breaker configuration.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold int
	// SuccessThreshold is the number of successes in half-open state to close.
	SuccessThreshold int
	// Cooldown is how long to wait before transitioning from open to half-open.
	Cooldown time.Duration
}

// DefaultBreakerConfig returns sensible defaults for a broker-facing breaker.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
	}
}

// Breaker implements the circuit breaker pattern. Callers ask Allow before an
// upstream exchange and record the outcome afterwards; only failures the
// caller considers infrastructure-level should be recorded as failures.
type Breaker struct {
	name   string
	config BreakerConfig

	mu              sync.RWMutex
	state           CircuitState
	failures        int
	successes       int
	lastFailureTime time.Time
	lastStateChange time.Time

	totalRequests  int64
	totalFailures  int64
	totalSuccesses int64
	totalRejected  int64
}

// NewBreaker creates a circuit breaker in the closed state.
func NewBreaker(name string, config BreakerConfig) *Breaker {
	return &Breaker{
		name:            name,
		config:          config,
		state:           CircuitClosed,
		lastStateChange: time.Now(),
	}
}

// Allow reports whether a request may proceed. It returns ErrCircuitOpen
// while the circuit is open and the cooldown has not elapsed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalRequests++

	switch b.state {
	case CircuitOpen:
		if time.Since(b.lastFailureTime) > b.config.Cooldown {
			b.transitionTo(CircuitHalfOpen)
			return nil
		}
		b.totalRejected++
		return ErrCircuitOpen
	default:
		return nil
	}
}

// RecordSuccess records a successful exchange.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalSuccesses++

	switch b.state {
	case CircuitHalfOpen:
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.transitionTo(CircuitClosed)
		}
	case CircuitClosed:
		b.failures = 0
	}
}

// RecordFailure records a failed exchange.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalFailures++
	b.lastFailureTime = time.Now()

	switch b.state {
	case CircuitClosed:
		b.failures++
		if b.failures >= b.config.FailureThreshold {
			b.transitionTo(CircuitOpen)
		}
	case CircuitHalfOpen:
		b.transitionTo(CircuitOpen)
	}
}

func (b *Breaker) transitionTo(state CircuitState) {
	b.state = state
	b.lastStateChange = time.Now()
	b.failures = 0
	b.successes = 0
}

// State returns the current circuit state.
func (b *Breaker) State() CircuitState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.name
}

// Reset returns the breaker to the closed state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitionTo(CircuitClosed)
}

// Stats returns breaker statistics.
func (b *Breaker) Stats() BreakerStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return BreakerStats{
		Name:            b.name,
		State:           b.state,
		TotalRequests:   b.totalRequests,
		TotalSuccesses:  b.totalSuccesses,
		TotalFailures:   b.totalFailures,
		TotalRejected:   b.totalRejected,
		CurrentFailures: b.failures,
		LastFailureTime: b.lastFailureTime,
		LastStateChange: b.lastStateChange,
	}
}

// BreakerStats holds circuit breaker statistics.
type BreakerStats struct {
	Name            string       `json:"name"`
	State           CircuitState `json:"state"`
	TotalRequests   int64        `json:"total_requests"`
	TotalSuccesses  int64        `json:"total_successes"`
	TotalFailures   int64        `json:"total_failures"`
	TotalRejected   int64        `json:"total_rejected"`
	CurrentFailures int          `json:"current_failures"`
	LastFailureTime time.Time    `json:"last_failure_time"`
	LastStateChange time.Time    `json:"last_state_change"`
}
