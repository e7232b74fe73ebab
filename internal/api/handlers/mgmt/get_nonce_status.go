package mgmt

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/types"
	"github/chapool/token-agent/internal/util"
)

func GetNonceStatusRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/nonce/:wallet", getNonceStatusHandler(s))
}

// getNonceStatusHandler reports stored vs. chain nonce for a wallet
// without acquiring the wallet lease.
func getNonceStatusHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		status, err := s.Nonce.GetStatus(ctx, c.Param("wallet"))
		if err != nil {
			return err
		}

		res := &types.NonceStatusResponse{
			Wallet:     swag.String(status.Wallet),
			ChainNonce: swag.Int64(int64(status.ChainNonce)),
			IsLocked:   swag.Bool(status.IsLocked),
			InSync:     swag.Bool(status.InSync),
		}

		if status.StoredNonce != nil {
			res.StoredNonce = swag.Int64(int64(*status.StoredNonce))
		}

		return util.ValidateAndReturn(c, http.StatusOK, res)
	}
}
