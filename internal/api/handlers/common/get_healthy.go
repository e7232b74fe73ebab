package common

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/util"
)

func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

// getHealthyHandler probes the external dependencies (database and
// coordination store) within the configured liveness timeout.
func getHealthyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := util.LogFromEchoContext(c)

		if !s.Ready() {
			return c.String(521, "Not ready.")
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), s.Config.Management.LivenessTimeout)
		defer cancel()

		var str strings.Builder
		healthy := true

		dbStart := time.Now()
		if err := s.DB.PingContext(ctx); err != nil {
			log.Error().Err(err).Msg("Database ping failed during healthcheck")
			healthy = false
			fmt.Fprintf(&str, "Database: %v\n", err)
		} else {
			fmt.Fprintf(&str, "Database: Ping success (in %v)\n", time.Since(dbStart))
		}

		kvStart := time.Now()
		if _, err := s.KV.Exists(ctx, "healthcheck"); err != nil {
			log.Error().Err(err).Msg("Coordination store probe failed during healthcheck")
			healthy = false
			fmt.Fprintf(&str, "Store: %v\n", err)
		} else {
			fmt.Fprintf(&str, "Store: Probe success (in %v)\n", time.Since(kvStart))
		}

		if !healthy {
			fmt.Fprint(&str, "Not healthy.")
			return c.String(521, str.String())
		}

		fmt.Fprint(&str, "Healthy.")

		return c.String(http.StatusOK, str.String())
	}
}
