package common

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github/chapool/token-agent/internal/api"
)

func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

// getReadyHandler reports whether the server is fully initialized. It does
// not probe any external dependency, see getHealthyHandler for that.
func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.Ready() {
			return c.String(521, "Not ready.")
		}

		return c.String(http.StatusOK, "Ready.")
	}
}
