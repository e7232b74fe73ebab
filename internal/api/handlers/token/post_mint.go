package token

import (
	"github.com/labstack/echo/v4"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/api/middleware"
	"github/chapool/token-agent/internal/token/ledger"
)

func PostMintRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Token.POST("/mint", postMintHandler(s), middleware.Idempotency(s))
}

// postMintHandler mints tokens to the target wallet. Requires an
// Idempotency-Key header, repeated keys replay the first response.
func postMintHandler(s *api.Server) echo.HandlerFunc {
	return submitTransaction(s, ledger.TxTypeMint)
}
