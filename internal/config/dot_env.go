package config

import (
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/subosito/gotenv"

	"github/chapool/token-agent/internal/util"
)

var dotEnvOnce sync.Once

// tryLoadDotEnv applies a local env file once per process, without
// overriding variables that are already set. Missing files are fine,
// containerized deployments configure through real ENV.
func tryLoadDotEnv() {
	dotEnvOnce.Do(func() {
		path := util.GetEnv("DOTENV_PATH", ".env.local")

		if _, err := os.Stat(path); err != nil {
			return
		}

		if err := gotenv.Load(path); err != nil {
			log.Warn().Str("path", path).Err(err).Msg("Failed to load env file")
			return
		}

		log.Debug().Str("path", path).Msg("Loaded env file")
	})
}
