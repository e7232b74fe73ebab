package probe

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/chapool/token-agent/internal/config"
	"github/chapool/token-agent/internal/kvstore"
	"github/chapool/token-agent/internal/token/chain"

	_ "github.com/lib/pq"
)

// runChecks probes the external dependencies directly, without a running
// server. Used as kubernetes exec probes.
func runChecks(ctx context.Context, cfg config.Server, includeChain bool, verbose bool) error {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return errors.Wrap(err, "failed to open database connection")
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "database ping failed")
	}

	if verbose {
		log.Info().Msg("Database reachable")
	}

	kv, err := kvstore.NewRedisStore(ctx, cfg.Redis.URL)
	if err != nil {
		return errors.Wrap(err, "coordination store probe failed")
	}
	defer kv.Close()

	if verbose {
		log.Info().Msg("Coordination store reachable")
	}

	if includeChain {
		client, err := chain.NewRPCClient(cfg.Chain.RPCURLs)
		if err != nil {
			return errors.Wrap(err, "failed to connect to chain RPC")
		}
		defer client.Close()

		if _, err := client.BaseFee(ctx); err != nil {
			return errors.Wrap(err, "chain RPC probe failed")
		}

		if verbose {
			log.Info().Msg("Chain RPC reachable")
		}
	}

	return nil
}
