package probe

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/token-agent/internal/config"
)

func newLiveness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liveness",
		Short: "Checks database and coordination store reachability",
		Run: func(cmd *cobra.Command, _ []string) {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to parse verbose flag")
			}

			cfg := config.DefaultServiceConfigFromEnv()
			config.InitLogger(cfg.Logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Management.LivenessTimeout)
			defer cancel()

			// the chain RPC is excluded here, an unreachable provider must
			// not restart the pod
			if err := runChecks(ctx, cfg, false, verbose); err != nil {
				log.Fatal().Err(err).Msg("Liveness probe failed")
			}
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Show verbose output.")

	return cmd
}
