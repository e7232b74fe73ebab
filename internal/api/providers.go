package api

import (
	"context"
	"database/sql"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
	"github/chapool/token-agent/internal/config"
	"github/chapool/token-agent/internal/idempotency"
	"github/chapool/token-agent/internal/kvstore"
	"github/chapool/token-agent/internal/metrics"
	"github/chapool/token-agent/internal/token/breaker"
	"github/chapool/token-agent/internal/token/chain"
	"github/chapool/token-agent/internal/token/ledger"
	"github/chapool/token-agent/internal/token/nonce"
	"github/chapool/token-agent/internal/token/signer"
	"github/chapool/token-agent/internal/token/submit"
)

// PROVIDERS - https://github.com/google/wire/blob/main/docs/guide.md#providers

func NewDB(cfg config.Server) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database connection")
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

//nolint:ireturn
func NewKVStore(cfg config.Server) (kvstore.Store, error) {
	return kvstore.NewRedisStore(context.Background(), cfg.Redis.URL)
}

//nolint:ireturn
func NewClock() time2.Clock {
	return time2.DefaultClock
}

func NewMetrics(db *sql.DB) *metrics.Service {
	return metrics.New(db)
}

//nolint:ireturn
func NewChainClient(cfg config.Server) (chain.Client, error) {
	return chain.NewRPCClient(cfg.Chain.RPCURLs)
}

//nolint:ireturn
func NewSignerService(cfg config.Server) (signer.Service, error) {
	return signer.NewService(cfg.Chain.ChainID, cfg.Chain.PrivateKeyHex)
}

func NewNonceCoordinator(cfg config.Server, kv kvstore.Store, chainClient chain.Client) *nonce.Coordinator {
	return nonce.NewCoordinator(kv, chainClient, nonce.Config{
		LeaseTTL:         cfg.Nonce.LeaseTTL,
		AcquireRetries:   cfg.Nonce.AcquireRetries,
		AcquireBaseDelay: cfg.Nonce.AcquireBaseDelay,
		AcquireMaxDelay:  cfg.Nonce.AcquireMaxDelay,
	})
}

func NewBreakerRegistry(cfg config.Server, kv kvstore.Store, clock time2.Clock) *breaker.Registry {
	registry := breaker.NewRegistry(kv, clock)

	registry.Register(breaker.ServiceBlockchainRPC, breaker.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		SuccessThreshold: cfg.Breaker.SuccessThreshold,
		Timeout:          cfg.Breaker.Timeout,
	})

	return registry
}

//nolint:ireturn
func NewLedgerService(db *sql.DB) ledger.Service {
	return ledger.NewService(db)
}

//nolint:ireturn
func NewSubmitService(
	cfg config.Server,
	chainClient chain.Client,
	sign signer.Service,
	nonces *nonce.Coordinator,
	breakers *breaker.Registry,
	records ledger.Service,
	m *metrics.Service,
) (submit.Service, error) {
	brk := breakers.Get(breaker.ServiceBlockchainRPC)
	if brk == nil {
		return nil, errors.Errorf("circuit breaker %q is not registered", breaker.ServiceBlockchainRPC)
	}

	return submit.NewService(submit.Config{
		MaxSendAttempts:    cfg.Submit.MaxSendAttempts,
		MaxConfirmAttempts: cfg.Submit.MaxConfirmAttempts,
		BaseDelay:          cfg.Submit.BaseDelay,
		MaxDelay:           cfg.Submit.MaxDelay,
		BackoffMultiplier:  cfg.Submit.BackoffMultiplier,
		ConfirmTimeout:     cfg.Submit.ConfirmTimeout,
		FeeBumpPercent:     int(cfg.Submit.FeeBumpPercent),
		MintGasLimit:       cfg.Submit.MintGasLimit,
		BurnGasLimit:       cfg.Submit.BurnGasLimit,
	}, cfg.Chain.ContractAddress, chainClient, sign, nonces, brk, records, m)
}

func NewIdempotencyCache(cfg config.Server, kv kvstore.Store) *idempotency.Cache {
	return idempotency.NewCache(kv, idempotency.Config{
		TTL:       cfg.Idempotency.TTL,
		MinKeyLen: cfg.Idempotency.KeyMinLength,
		MaxKeyLen: cfg.Idempotency.KeyMaxLength,
	})
}
