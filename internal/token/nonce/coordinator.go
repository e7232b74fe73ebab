package nonce

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/chapool/token-agent/internal/kvstore"
	"github/chapool/token-agent/internal/token/chain"
)

// Coordinator hands out unique, monotonically increasing transaction
// nonces per wallet. All state lives in the shared coordination store so
// concurrent server instances never reuse a number. Per-wallet operations
// are serialized by a store lease; different wallets proceed in parallel.
type Coordinator struct {
	store kvstore.Store
	chain chain.Client
	cfg   Config

	// sleep is swapped out in tests
	sleep func(time.Duration)
}

// NewCoordinator creates a nonce coordinator on the given store and chain client.
func NewCoordinator(store kvstore.Store, chainClient chain.Client, cfg Config) *Coordinator {
	return &Coordinator{
		store: store,
		chain: chainClient,
		cfg:   cfg,
		sleep: time.Sleep,
	}
}

func normalizeWallet(wallet string) string {
	return strings.ToLower(wallet)
}

func nonceKey(wallet string) string {
	return "nonce:" + wallet
}

func lockKey(wallet string) string {
	return "nonce:lock:" + wallet
}

// GetCurrentNonce returns the next nonce to use for wallet. With
// forceSync the stored value is discarded in favor of the chain's
// authoritative transaction count.
func (c *Coordinator) GetCurrentNonce(ctx context.Context, wallet string, forceSync bool) (uint64, error) {
	wallet = normalizeWallet(wallet)

	var nonce uint64
	err := c.withLease(ctx, wallet, func(ctx context.Context) error {
		var err error
		nonce, err = c.currentNonceLocked(ctx, wallet, forceSync)
		return err
	})

	return nonce, err
}

// currentNonceLocked resolves the next nonce while the caller holds the
// wallet lease. Adopts max(stored, chain) to defend against nonces
// consumed outside this coordinator, persisting the adopted value when it
// differs from the stored one.
func (c *Coordinator) currentNonceLocked(ctx context.Context, wallet string, forceSync bool) (uint64, error) {
	stored, hasStored, err := c.storedNonce(ctx, wallet)
	if err != nil {
		return 0, err
	}

	chainNonce, err := c.chain.TransactionCount(ctx, common.HexToAddress(wallet))
	if err != nil {
		return 0, errors.Wrap(err, "failed to get chain transaction count")
	}

	if !hasStored || forceSync {
		if err := c.persistNonce(ctx, wallet, chainNonce); err != nil {
			return 0, err
		}

		log.Info().
			Str("wallet", wallet).
			Uint64("nonce", chainNonce).
			Bool("force_sync", forceSync).
			Msg("Nonce synchronized from chain")

		return chainNonce, nil
	}

	nonce := stored
	if chainNonce > nonce {
		nonce = chainNonce
	}

	if nonce != stored || stored > chainNonce {
		// stored > chain can mask out-of-band consumption behind a stale
		// local reservation, so it is surfaced loudly either way.
		log.Warn().
			Str("wallet", wallet).
			Uint64("stored", stored).
			Uint64("chain", chainNonce).
			Uint64("using", nonce).
			Msg("Nonce mismatch between store and chain")
	}

	if nonce != stored {
		if err := c.persistNonce(ctx, wallet, nonce); err != nil {
			return 0, err
		}
	}

	return nonce, nil
}

// ReserveNonce takes the next nonce ticket for wallet: it resolves the
// current nonce under the lease, advances the stored value by one and
// returns the reserved number. This is the only operation advancing state.
func (c *Coordinator) ReserveNonce(ctx context.Context, wallet string) (uint64, error) {
	wallet = normalizeWallet(wallet)

	var reserved uint64
	err := c.withLease(ctx, wallet, func(ctx context.Context) error {
		current, err := c.currentNonceLocked(ctx, wallet, false)
		if err != nil {
			return err
		}

		if err := c.persistNonce(ctx, wallet, current+1); err != nil {
			return err
		}

		reserved = current

		log.Debug().
			Str("wallet", wallet).
			Uint64("nonce", reserved).
			Msg("Nonce reserved")

		return nil
	})

	return reserved, err
}

// ResetToChain forcibly overwrites the stored nonce with the chain's
// current transaction count. Operator recovery escape hatch.
func (c *Coordinator) ResetToChain(ctx context.Context, wallet string) (uint64, error) {
	wallet = normalizeWallet(wallet)

	var nonce uint64
	err := c.withLease(ctx, wallet, func(ctx context.Context) error {
		chainNonce, err := c.chain.TransactionCount(ctx, common.HexToAddress(wallet))
		if err != nil {
			return errors.Wrap(err, "failed to get chain transaction count")
		}

		if err := c.persistNonce(ctx, wallet, chainNonce); err != nil {
			return err
		}

		nonce = chainNonce

		log.Warn().
			Str("wallet", wallet).
			Uint64("nonce", nonce).
			Msg("Nonce reset to chain state")

		return nil
	})

	return nonce, err
}

// HandleSubmissionError recovers from a nonce-related send failure by
// resyncing to chain state. Returns the corrected nonce to retry with.
func (c *Coordinator) HandleSubmissionError(ctx context.Context, wallet string, failedNonce uint64) (uint64, error) {
	wallet = normalizeWallet(wallet)

	log.Error().
		Str("wallet", wallet).
		Uint64("failed_nonce", failedNonce).
		Msg("Nonce error during submission, resyncing to chain")

	corrected, err := c.ResetToChain(ctx, wallet)
	if err != nil {
		return 0, err
	}

	log.Info().
		Str("wallet", wallet).
		Uint64("failed_nonce", failedNonce).
		Uint64("corrected_nonce", corrected).
		Msg("Recovered from nonce error")

	return corrected, nil
}

// GetStatus reports the stored vs. chain nonce state without taking the lease.
func (c *Coordinator) GetStatus(ctx context.Context, wallet string) (*Status, error) {
	wallet = normalizeWallet(wallet)

	stored, hasStored, err := c.storedNonce(ctx, wallet)
	if err != nil {
		return nil, err
	}

	chainNonce, err := c.chain.TransactionCount(ctx, common.HexToAddress(wallet))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chain transaction count")
	}

	isLocked, err := c.store.Exists(ctx, lockKey(wallet))
	if err != nil {
		return nil, errors.Wrap(err, "failed to check lease state")
	}

	status := &Status{
		Wallet:     wallet,
		ChainNonce: chainNonce,
		IsLocked:   isLocked,
		InSync:     hasStored && stored == chainNonce,
	}
	if hasStored {
		status.StoredNonce = &stored
	}

	return status, nil
}

func (c *Coordinator) storedNonce(ctx context.Context, wallet string) (uint64, bool, error) {
	val, ok, err := c.store.Get(ctx, nonceKey(wallet))
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to read stored nonce")
	}
	if !ok {
		return 0, false, nil
	}

	nonce, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, errors.Wrap(err, "stored nonce is not an unsigned integer")
	}

	return nonce, true, nil
}

func (c *Coordinator) persistNonce(ctx context.Context, wallet string, nonce uint64) error {
	if err := c.store.Set(ctx, nonceKey(wallet), strconv.FormatUint(nonce, 10)); err != nil {
		return errors.Wrap(err, "failed to persist nonce")
	}

	return nil
}
