package mgmt

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/api/httperrors"
	"github/chapool/token-agent/internal/util"
)

func GetCircuitBreakerRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/circuit-breakers/:name", getCircuitBreakerHandler(s))
}

func getCircuitBreakerHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		b := s.Breakers.Get(c.Param("name"))
		if b == nil {
			return httperrors.NewHTTPError(http.StatusNotFound, httperrors.HTTPErrorTypeGeneric, "Unknown circuit breaker.")
		}

		status, err := b.Status(ctx)
		if err != nil {
			return err
		}

		return util.ValidateAndReturn(c, http.StatusOK, toBreakerStatusResponse(status))
	}
}
