package breaker

import (
	"fmt"
	"time"
)

// State of a circuit breaker.
type State string

const (
	// StateClosed is normal operation, calls pass through.
	StateClosed State = "closed"
	// StateOpen rejects calls immediately without touching the downstream.
	StateOpen State = "open"
	// StateHalfOpen probes whether the downstream recovered.
	StateHalfOpen State = "half_open"
)

// Config is per-breaker configuration.
type Config struct {
	// FailureThreshold failures in CLOSED open the circuit.
	FailureThreshold int
	// SuccessThreshold consecutive successes in HALF_OPEN close it again.
	SuccessThreshold int
	// Timeout is how long the circuit stays OPEN before a probe is allowed.
	Timeout time.Duration
	// IsFailure decides which errors count against the breaker. A client
	// validation error should not trip it; a network error should.
	// nil means every error counts.
	IsFailure func(error) bool
}

// DefaultConfig returns the breaker defaults (5 failures to open, 2
// successes to close, 30s open timeout, all errors count).
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}
}

// Status is a snapshot of one breaker for observability.
type Status struct {
	Name             string
	State            State
	FailureCount     int64
	SuccessCount     int64
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
	LastFailureAt    *time.Time
}

// OpenError is returned when a call is rejected because the circuit is
// open. It is cheap to produce and distinguishable from downstream
// failures so callers can map it to a "temporarily unavailable" response.
type OpenError struct {
	Name         string
	FailureCount int64
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q is open (%d failures)", e.Name, e.FailureCount)
}
