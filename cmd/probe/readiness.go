package probe

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/token-agent/internal/config"
)

func newReadiness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Checks database, coordination store and chain RPC reachability",
		Run: func(cmd *cobra.Command, _ []string) {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to parse verbose flag")
			}

			cfg := config.DefaultServiceConfigFromEnv()
			config.InitLogger(cfg.Logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Management.ReadinessTimeout)
			defer cancel()

			if err := runChecks(ctx, cfg, true, verbose); err != nil {
				log.Fatal().Err(err).Msg("Readiness probe failed")
			}
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Show verbose output.")

	return cmd
}
