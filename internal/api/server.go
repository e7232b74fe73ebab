package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dropbox/godropbox/time2"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
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
	"github/chapool/token-agent/internal/util"

	// Import postgres driver for database/sql package
	_ "github.com/lib/pq"
)

// ChainClient is the RPC surface the API consumes.
// Alias to chain.Client for API access.
type ChainClient = chain.Client

// SignerService signs with the backend operating account.
// Alias to signer.Service for API access.
type SignerService = signer.Service

// SubmitService executes token operations to completion.
// Alias to submit.Service for API access.
type SubmitService = submit.Service

// LedgerService persists transaction audit records.
// Alias to ledger.Service for API access.
type LedgerService = ledger.Service

type Router struct {
	Routes     []*echo.Route
	Root       *echo.Group
	Management *echo.Group
	APIV1Token *echo.Group
}

// Server is a central struct keeping all the dependencies.
// It is initialized with wire, which handles making the new instances of the components
// in the right order. To add a new component, 3 steps are required:
// - declaring it in this struct
// - adding a provider function in providers.go
// - adding the provider's function name to the arguments of wire.Build() in wire.go
//
// Components labeled as `wire:"-"` will be skipped and have to be initialized after the InitNewServer* call.
// For more information about wire refer to https://pkg.go.dev/github.com/google/wire
type Server struct {
	// skip wire:
	// -> initialized with router.Init(s) function
	Echo   *echo.Echo `wire:"-"`
	Router *Router    `wire:"-"`

	Config      config.Server
	DB          *sql.DB
	KV          kvstore.Store
	Clock       time2.Clock
	Metrics     *metrics.Service
	Chain       ChainClient
	Signer      SignerService
	Nonce       *nonce.Coordinator
	Breakers    *breaker.Registry
	Submitter   SubmitService
	Ledger      LedgerService
	Idempotency *idempotency.Cache
}

// newServerWithComponents is used by wire to initialize the server components.
// Components not listed here won't be handled by wire and should be initialized separately.
// Components which shouldn't be handled must be labeled `wire:"-"` in Server struct.
func newServerWithComponents(
	cfg config.Server,
	db *sql.DB,
	kv kvstore.Store,
	clock time2.Clock,
	metrics *metrics.Service,
	chainClient ChainClient,
	sign SignerService,
	nonces *nonce.Coordinator,
	breakers *breaker.Registry,
	submitter SubmitService,
	records LedgerService,
	idem *idempotency.Cache,
) *Server {
	return &Server{
		Config:      cfg,
		DB:          db,
		KV:          kv,
		Clock:       clock,
		Metrics:     metrics,
		Chain:       chainClient,
		Signer:      sign,
		Nonce:       nonces,
		Breakers:    breakers,
		Submitter:   submitter,
		Ledger:      records,
		Idempotency: idem,
	}
}

func NewServer(config config.Server) *Server {
	s := &Server{
		Config: config,
	}

	return s
}

func (s *Server) Ready() bool {
	if err := util.IsStructInitialized(s); err != nil {
		log.Debug().Err(err).Msg("Server is not fully initialized")
		return false
	}

	return true
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	if err := s.Echo.Start(s.Config.Echo.ListenAddress); err != nil {
		return fmt.Errorf("failed to start echo server: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.DB != nil {
		log.Debug().Msg("Closing database connection")

		if err := s.DB.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			log.Error().Err(err).Msg("Failed to close database connection")
			errs = append(errs, err)
		}
	}

	if closer, ok := s.KV.(io.Closer); ok && closer != nil {
		log.Debug().Msg("Closing coordination store connection")

		if err := closer.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close coordination store connection")
			errs = append(errs, err)
		}
	}

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")

		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	return errs
}
