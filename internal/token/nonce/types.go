package nonce

import (
	"fmt"
	"time"
)

// Config controls lease acquisition behavior.
type Config struct {
	// LeaseTTL is the expiry on the store lease. A crashed holder can
	// block a wallet for at most this long.
	LeaseTTL time.Duration
	// AcquireRetries bounds the acquisition loop.
	AcquireRetries int
	// AcquireBaseDelay is the initial backoff delay between attempts.
	AcquireBaseDelay time.Duration
	// AcquireMaxDelay caps the backoff delay.
	AcquireMaxDelay time.Duration
}

// DefaultConfig returns the acquisition defaults (100ms backoff start,
// doubling, capped at 5s, 10 attempts, 30s lease TTL).
func DefaultConfig() Config {
	return Config{
		LeaseTTL:         30 * time.Second,
		AcquireRetries:   10,
		AcquireBaseDelay: 100 * time.Millisecond,
		AcquireMaxDelay:  5 * time.Second,
	}
}

// Status describes the coordination state for one wallet, for admin
// introspection.
type Status struct {
	Wallet      string
	StoredNonce *uint64
	ChainNonce  uint64
	IsLocked    bool
	InSync      bool
}

// LeaseTimeoutError is returned when the wallet lease could not be
// acquired within the bounded retry loop. It is a hard failure: nonce
// operations never proceed without the lease.
type LeaseTimeoutError struct {
	Wallet   string
	Attempts int
}

func (e *LeaseTimeoutError) Error() string {
	return fmt.Sprintf("failed to acquire nonce lease for %s after %d attempts", e.Wallet, e.Attempts)
}
