package mgmt

import (
	"net/http"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/token/breaker"
	"github/chapool/token-agent/internal/types"
	"github/chapool/token-agent/internal/util"
)

func GetCircuitBreakersRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/circuit-breakers", getCircuitBreakersHandler(s))
}

func getCircuitBreakersHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		all := s.Breakers.All()
		res := &types.CircuitBreakerListResponse{
			Breakers: make([]*types.CircuitBreakerStatusResponse, 0, len(all)),
		}

		for _, b := range all {
			status, err := b.Status(ctx)
			if err != nil {
				return err
			}

			res.Breakers = append(res.Breakers, toBreakerStatusResponse(status))
		}

		return util.ValidateAndReturn(c, http.StatusOK, res)
	}
}

func toBreakerStatusResponse(status *breaker.Status) *types.CircuitBreakerStatusResponse {
	res := &types.CircuitBreakerStatusResponse{
		Name:             swag.String(status.Name),
		State:            swag.String(string(status.State)),
		FailureCount:     status.FailureCount,
		SuccessCount:     status.SuccessCount,
		FailureThreshold: int64(status.FailureThreshold),
		SuccessThreshold: int64(status.SuccessThreshold),
		TimeoutSeconds:   int64(status.Timeout.Seconds()),
	}

	if status.LastFailureAt != nil {
		lastFailure := strfmt.DateTime(*status.LastFailureAt)
		res.LastFailureAt = &lastFailure
	}

	return res
}
