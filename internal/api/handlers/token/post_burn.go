package token

import (
	"github.com/labstack/echo/v4"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/api/middleware"
	"github/chapool/token-agent/internal/token/ledger"
)

func PostBurnRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Token.POST("/burn", postBurnHandler(s), middleware.Idempotency(s))
}

// postBurnHandler burns tokens from the target wallet. Requires an
// Idempotency-Key header, repeated keys replay the first response.
func postBurnHandler(s *api.Server) echo.HandlerFunc {
	return submitTransaction(s, ledger.TxTypeBurn)
}
