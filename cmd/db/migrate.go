package db

import (
	"database/sql"

	"github.com/rs/zerolog/log"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github/chapool/token-agent/internal/config"
	"github/chapool/token-agent/internal/util"

	_ "github.com/lib/pq"
)

func newMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Applies all pending database migrations",
		Run: func(_ *cobra.Command, _ []string) {
			cfg := config.DefaultServiceConfigFromEnv()
			config.InitLogger(cfg.Logger)

			n, err := applyMigrations(cfg)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to apply migrations")
			}

			log.Info().Int("applied", n).Msg("Migrations applied")
		},
	}
}

func applyMigrations(cfg config.Server) (int, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return 0, err
	}
	defer db.Close()

	migrations := &migrate.FileMigrationSource{
		Dir: util.GetEnv("DB_MIGRATIONS_FOLDER", "migrations"),
	}

	return migrate.Exec(db, "postgres", migrations, migrate.Up)
}
