package mgmt

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/api/httperrors"
	"github/chapool/token-agent/internal/util"
)

func PostCircuitBreakerResetRoute(s *api.Server) *echo.Route {
	return s.Router.Management.POST("/circuit-breakers/:name/reset", postCircuitBreakerResetHandler(s))
}

// postCircuitBreakerResetHandler forces a breaker back to CLOSED and
// clears its counters.
func postCircuitBreakerResetHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		name := c.Param("name")

		b := s.Breakers.Get(name)
		if b == nil {
			return httperrors.NewHTTPError(http.StatusNotFound, httperrors.HTTPErrorTypeGeneric, "Unknown circuit breaker.")
		}

		util.LogFromContext(ctx).Info().Str("breaker", name).Msg("Resetting circuit breaker on admin request")

		if err := b.Reset(ctx); err != nil {
			return err
		}

		status, err := b.Status(ctx)
		if err != nil {
			return err
		}

		return util.ValidateAndReturn(c, http.StatusOK, toBreakerStatusResponse(status))
	}
}
