package test

import (
	"database/sql"
	"testing"

	"github.com/dropbox/godropbox/time2"
	"github.com/stretchr/testify/require"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/api/router"
	"github/chapool/token-agent/internal/config"
	"github/chapool/token-agent/internal/idempotency"
	"github/chapool/token-agent/internal/kvstore"
	"github/chapool/token-agent/internal/metrics"
	"github/chapool/token-agent/internal/token/breaker"
	"github/chapool/token-agent/internal/token/ledger"
	"github/chapool/token-agent/internal/token/nonce"
	"github/chapool/token-agent/internal/token/signer"
	"github/chapool/token-agent/internal/token/submit"
)

const (
	// TestPrivateKeyHex is the first well-known local devnet account key.
	TestPrivateKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	// TestOperatorAddress is the address derived from TestPrivateKeyHex.
	TestOperatorAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	// TestContractAddress is the token contract used in tests.
	TestContractAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	// TestManagementSecret secures the management endpoints in tests.
	TestManagementSecret = "test-mgmt-secret"
)

// DefaultTestServerConfig returns the ENV-based defaults adjusted for an
// isolated test server instance.
func DefaultTestServerConfig() config.Server {
	cfg := config.DefaultServiceConfigFromEnv()

	cfg.Echo.ListenAddress = ":0"
	cfg.Chain.ContractAddress = TestContractAddress
	cfg.Chain.PrivateKeyHex = TestPrivateKeyHex
	cfg.Management.Secret = TestManagementSecret
	cfg.Logger.Level = "warn"

	// no real delays in tests
	cfg.Submit.BaseDelay = 0
	cfg.Submit.MaxDelay = 0
	cfg.Nonce.AcquireBaseDelay = 0
	cfg.Nonce.AcquireMaxDelay = 0

	return cfg
}

// WithTestServer runs closure against a fully routed server backed by
// in-memory components and a scripted chain client. No external services
// are required.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	WithTestServerConfigurable(t, DefaultTestServerConfig(), closure)
}

// WithTestServerConfigurable is WithTestServer with a custom config.
func WithTestServerConfigurable(t *testing.T, cfg config.Server, closure func(s *api.Server)) {
	t.Helper()

	s := NewTestServer(t, cfg)
	defer func() {
		_ = s.DB.Close()
	}()

	closure(s)
}

// NewTestServer wires a server from in-memory components. The *sql.DB
// handle is opened lazily and never connected, the ledger runs in memory.
func NewTestServer(t *testing.T, cfg config.Server) *api.Server {
	t.Helper()

	// lazily opened, satisfies the readiness check without a database
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	require.NoError(t, err)

	clock := time2.DefaultClock
	kv := kvstore.NewMemoryStore(clock)
	m := metrics.New(nil)

	chainClient := NewScriptedChainClient()

	sign, err := signer.NewService(cfg.Chain.ChainID, cfg.Chain.PrivateKeyHex)
	require.NoError(t, err)

	nonces := nonce.NewCoordinator(kv, chainClient, nonce.Config{
		LeaseTTL:         cfg.Nonce.LeaseTTL,
		AcquireRetries:   cfg.Nonce.AcquireRetries,
		AcquireBaseDelay: cfg.Nonce.AcquireBaseDelay,
		AcquireMaxDelay:  cfg.Nonce.AcquireMaxDelay,
	})

	breakers := breaker.NewRegistry(kv, clock)
	brk := breakers.Register(breaker.ServiceBlockchainRPC, breaker.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		SuccessThreshold: cfg.Breaker.SuccessThreshold,
		Timeout:          cfg.Breaker.Timeout,
	})

	records := ledger.NewMemoryService()

	submitter, err := submit.NewService(submit.Config{
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
	require.NoError(t, err)

	idem := idempotency.NewCache(kv, idempotency.Config{
		TTL:       cfg.Idempotency.TTL,
		MinKeyLen: cfg.Idempotency.KeyMinLength,
		MaxKeyLen: cfg.Idempotency.KeyMaxLength,
	})

	s := &api.Server{
		Config:      cfg,
		DB:          db,
		KV:          kv,
		Clock:       clock,
		Metrics:     m,
		Chain:       chainClient,
		Signer:      sign,
		Nonce:       nonces,
		Breakers:    breakers,
		Submitter:   submitter,
		Ledger:      records,
		Idempotency: idem,
	}

	router.Init(s)

	return s
}
