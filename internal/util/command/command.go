package command

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/api/router"
	"github/chapool/token-agent/internal/config"
)

// NewSubcommandGroup returns a command that only groups its subcommands
// and prints usage when invoked directly.
func NewSubcommandGroup(use string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use: use,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				log.Fatal().Err(err).Msg("Failed to print help")
			}
		},
	}

	cmd.AddCommand(subcommands...)

	return cmd
}

// WithServer initializes a fully wired server without starting to listen,
// runs fn against it and shuts everything down again. Meant for one-shot
// CLI tasks that need the full component graph.
func WithServer(ctx context.Context, cfg config.Server, fn func(ctx context.Context, s *api.Server) error) error {
	config.InitLogger(cfg.Logger)

	s, err := api.InitNewServer(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize server")
		return err
	}

	router.Init(s)

	defer func() {
		if errs := s.Shutdown(ctx); len(errs) > 0 {
			for _, err := range errs {
				log.Error().Err(err).Msg("Error while shutting down server")
			}
		}
	}()

	return fn(ctx, s)
}
