package nonce

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/chapool/token-agent/internal/kvstore"
)

// Lease is an exclusive, time-bounded claim on one wallet's nonce state.
// It auto-expires in the store, so a crashed holder cannot deadlock the
// wallet. Release is idempotent and only deletes the key while this
// holder still owns it.
type Lease struct {
	key   string
	token string
	store kvstore.Store

	mu       sync.Mutex
	released bool
}

// AcquireLease attempts a conditional set-if-absent-with-expiry on the
// wallet's lock key, retrying with exponential backoff until the bounded
// attempt count is exhausted.
func (c *Coordinator) AcquireLease(ctx context.Context, wallet string) (*Lease, error) {
	wallet = normalizeWallet(wallet)
	key := lockKey(wallet)
	token := uuid.New().String()

	delay := c.cfg.AcquireBaseDelay

	for attempt := 0; attempt < c.cfg.AcquireRetries; attempt++ {
		acquired, err := c.store.SetNX(ctx, key, token, c.cfg.LeaseTTL)
		if err != nil {
			return nil, errors.Wrap(err, "failed to acquire nonce lease")
		}

		if acquired {
			log.Debug().Str("wallet", wallet).Msg("Nonce lease acquired")

			return &Lease{
				key:   key,
				token: token,
				store: c.store,
			}, nil
		}

		c.sleep(delay)

		delay *= 2
		if delay > c.cfg.AcquireMaxDelay {
			delay = c.cfg.AcquireMaxDelay
		}
	}

	return nil, &LeaseTimeoutError{Wallet: wallet, Attempts: c.cfg.AcquireRetries}
}

// Release frees the lease if this holder still owns it. Safe to call
// multiple times and on all exit paths.
func (l *Lease) Release(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released {
		return
	}
	l.released = true

	stored, ok, err := l.store.Get(ctx, l.key)
	if err != nil {
		log.Warn().Str("key", l.key).Err(err).Msg("Failed to read lease on release, relying on TTL expiry")
		return
	}

	// Only delete while we still own the lease. An expired and re-acquired
	// lease belongs to someone else.
	if ok && stored == l.token {
		if err := l.store.Del(ctx, l.key); err != nil {
			log.Warn().Str("key", l.key).Err(err).Msg("Failed to release lease, relying on TTL expiry")
			return
		}

		log.Debug().Str("key", l.key).Msg("Nonce lease released")
	}
}

// withLease runs fn while holding the wallet lease, releasing it on all
// exit paths.
func (c *Coordinator) withLease(ctx context.Context, wallet string, fn func(ctx context.Context) error) error {
	lease, err := c.AcquireLease(ctx, wallet)
	if err != nil {
		return err
	}
	defer lease.Release(ctx)

	return fn(ctx)
}
