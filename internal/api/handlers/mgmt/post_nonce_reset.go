package mgmt

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/types"
	"github/chapool/token-agent/internal/util"
)

func PostNonceResetRoute(s *api.Server) *echo.Route {
	return s.Router.Management.POST("/nonce/:wallet/reset", postNonceResetHandler(s))
}

// postNonceResetHandler discards the stored nonce and re-adopts the
// chain's transaction count under the wallet lease.
func postNonceResetHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		wallet := c.Param("wallet")

		util.LogFromContext(ctx).Info().Str("wallet", wallet).Msg("Resetting nonce to chain state on admin request")

		nonce, err := s.Nonce.ResetToChain(ctx, wallet)
		if err != nil {
			return err
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.NonceResetResponse{
			Wallet: swag.String(wallet),
			Nonce:  swag.Int64(int64(nonce)),
		})
	}
}
