package config

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger applies the logger config to the global zerolog logger.
func InitLogger(cfg LoggerServer) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		log.Warn().Err(err).Str("level", cfg.Level).Msg("Failed to parse log level, falling back to info")
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.PrettyPrintConsole {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		})
	}
}
