package token

import (
	"net/http"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/api/httperrors"
	"github/chapool/token-agent/internal/token/ledger"
	"github/chapool/token-agent/internal/types"
	"github/chapool/token-agent/internal/util"
)

func GetTransactionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Token.GET("/transactions/:txId", getTransactionHandler(s))
}

// getTransactionHandler returns the audit record of a transaction,
// including non-terminal states of submissions still in flight.
func getTransactionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		record, err := s.Ledger.Get(ctx, c.Param("txId"))
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return httperrors.ErrNotFoundTransaction
			}

			return err
		}

		return util.ValidateAndReturn(c, http.StatusOK, toRecordResponse(record))
	}
}

func toRecordResponse(record *ledger.Transaction) *types.TransactionRecordResponse {
	res := &types.TransactionRecordResponse{
		TxID:          swag.String(record.TxID),
		WalletAddress: swag.String(record.WalletAddress),
		TxType:        swag.String(string(record.TxType)),
		AmountWei:     swag.String(record.AmountWei),
		Status:        swag.String(string(record.Status)),
		AttemptCount:  int64(record.AttemptCount),
		CreatedAt:     strfmt.DateTime(record.CreatedAt),
	}

	if record.ChainTxHash.Valid {
		res.ChainTxHash = record.ChainTxHash.String
	}
	if record.ReservedNonce.Valid {
		res.ReservedNonce = record.ReservedNonce.Int64
	}
	if record.GasUsed.Valid {
		res.GasUsed = record.GasUsed.Int64
	}
	if record.LastError.Valid {
		res.LastError = record.LastError.String
	}
	if record.ConfirmedAt.Valid {
		res.ConfirmedAt = strfmt.DateTime(record.ConfirmedAt.Time)
	}

	return res
}
