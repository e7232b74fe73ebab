package token

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/api/httperrors"
	"github/chapool/token-agent/internal/token/breaker"
	"github/chapool/token-agent/internal/token/ledger"
	"github/chapool/token-agent/internal/token/nonce"
	"github/chapool/token-agent/internal/token/submit"
	"github/chapool/token-agent/internal/types"
	"github/chapool/token-agent/internal/util"
)

// submitTransaction is the shared body of the mint and burn handlers, they
// only differ in the transaction type.
func submitTransaction(s *api.Server, txType ledger.TxType) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var body types.PostTokenTransactionPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		amount, ok := new(big.Int).SetString(*body.AmountWei, 10)
		if !ok || amount.Sign() <= 0 {
			return httperrors.NewHTTPValidationError(
				http.StatusBadRequest,
				httperrors.HTTPErrorTypeGeneric,
				http.StatusText(http.StatusBadRequest),
				[]*types.HTTPValidationErrorDetail{{
					Key:   swag.String("amountWei"),
					In:    swag.String("body"),
					Error: swag.String("amountWei must be a positive integer"),
				}},
			)
		}

		res, err := s.Submitter.Submit(ctx, &submit.Request{
			TxID:          *body.TxID,
			TxType:        txType,
			WalletAddress: *body.WalletAddress,
			AmountWei:     amount,
			Reason:        body.Reason,
		})
		if err != nil {
			return mapSubmitError(s, c, err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, toTransactionResponse(res))
	}
}

// mapSubmitError translates submitter failures into public HTTP errors.
func mapSubmitError(s *api.Server, c echo.Context, err error) error {
	log := util.LogFromEchoContext(c)

	var openErr *breaker.OpenError
	if errors.As(err, &openErr) {
		c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(int(s.Config.Breaker.Timeout.Seconds())))

		httpErr := httperrors.NewHTTPError(http.StatusServiceUnavailable, httperrors.HTTPErrorTypeCircuitOpen, "Blockchain RPC is temporarily unavailable.")
		httpErr.Internal = err

		return httpErr
	}

	var leaseErr *nonce.LeaseTimeoutError
	if errors.As(err, &leaseErr) {
		httpErr := httperrors.NewHTTPError(http.StatusServiceUnavailable, httperrors.HTTPErrorTypeSubmissionFailed, "Could not acquire wallet lease, try again later.")
		httpErr.Internal = err

		return httpErr
	}

	var fatalErr *submit.FatalError
	if errors.As(err, &fatalErr) {
		httpErr := httperrors.NewHTTPErrorWithDetail(http.StatusBadRequest, httperrors.HTTPErrorTypeSubmissionFailed, "Transaction failed and will not be retried.", fatalErr.Err.Error())
		httpErr.Internal = err

		return httpErr
	}

	var exhaustedErr *submit.ExhaustedError
	if errors.As(err, &exhaustedErr) {
		httpErr := httperrors.NewHTTPError(http.StatusBadGateway, httperrors.HTTPErrorTypeRetriesExhausted, "Transaction could not be completed after all retries.")
		httpErr.Internal = err

		return httpErr
	}

	log.Error().Err(err).Msg("Unexpected submission error")

	return err
}

func toTransactionResponse(res *submit.Result) *types.TokenTransactionResponse {
	return &types.TokenTransactionResponse{
		TxID:          swag.String(res.TxID),
		ChainTxHash:   res.ChainTxHash,
		Status:        swag.String(string(res.Status)),
		ReservedNonce: int64(res.ReservedNonce),
		GasUsed:       int64(res.GasUsed),
		AttemptCount:  int64(res.AttemptCount),
	}
}
