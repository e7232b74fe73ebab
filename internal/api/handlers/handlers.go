package handlers

import (
	"github.com/labstack/echo/v4"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/api/handlers/common"
	"github/chapool/token-agent/internal/api/handlers/mgmt"
	"github/chapool/token-agent/internal/api/handlers/token"
)

// AttachAllRoutes attaches all defined routes to the server's echo router
func AttachAllRoutes(s *api.Server) {
	// attach our routes
	s.Router.Routes = []*echo.Route{
		common.GetHealthyRoute(s),
		common.GetMetricsRoute(s),
		common.GetReadyRoute(s),
		common.GetVersionRoute(s),
		mgmt.GetCircuitBreakerRoute(s),
		mgmt.GetCircuitBreakersRoute(s),
		mgmt.GetNonceStatusRoute(s),
		mgmt.PostCircuitBreakerResetRoute(s),
		mgmt.PostNonceResetRoute(s),
		token.GetTransactionRoute(s),
		token.PostBurnRoute(s),
		token.PostMintRoute(s),
	}
}
