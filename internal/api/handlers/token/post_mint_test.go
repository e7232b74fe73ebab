package token_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/api/middleware"
	"github/chapool/token-agent/internal/test"
	"github/chapool/token-agent/internal/token/breaker"
	"github/chapool/token-agent/internal/types"
)

const testWallet = "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"

func mintPayload(txID string) test.GenericPayload {
	return test.GenericPayload{
		"txId":          txID,
		"walletAddress": testWallet,
		"amountWei":     "1000000000000000000",
		"reason":        "season reward",
	}
}

func scriptedChain(t *testing.T, s *api.Server) *test.ScriptedChainClient {
	t.Helper()

	chainClient, ok := s.Chain.(*test.ScriptedChainClient)
	require.True(t, ok)

	return chainClient
}

func TestPostMintSuccess(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "POST", "/api/v1/token/mint", mintPayload("mint-1"),
			test.HeadersWithIdempotencyKey("mint-key-0001"))
		require.Equal(t, http.StatusOK, res.Result().StatusCode, res.Body.String())

		var response types.TokenTransactionResponse
		test.ParseResponseBody(t, res, &response)

		assert.Equal(t, "mint-1", *response.TxID)
		assert.Equal(t, "CONFIRMED", *response.Status)
		assert.NotEmpty(t, response.ChainTxHash)
		assert.EqualValues(t, 1, response.AttemptCount)
		assert.Empty(t, res.Header().Get(middleware.HeaderIdempotencyReplayed))

		require.Len(t, scriptedChain(t, s).SentTxs, 1)
	})
}

func TestPostMintIdempotentReplay(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		headers := test.HeadersWithIdempotencyKey("mint-key-0001")

		first := test.PerformRequest(t, s, "POST", "/api/v1/token/mint", mintPayload("mint-1"), headers)
		require.Equal(t, http.StatusOK, first.Result().StatusCode)

		second := test.PerformRequest(t, s, "POST", "/api/v1/token/mint", mintPayload("mint-1"), headers)
		require.Equal(t, http.StatusOK, second.Result().StatusCode)

		assert.Equal(t, "true", second.Header().Get(middleware.HeaderIdempotencyReplayed))
		assert.JSONEq(t, first.Body.String(), second.Body.String())

		assert.Len(t, scriptedChain(t, s).SentTxs, 1, "the replay must not hit the chain again")
	})
}

func TestPostMintDuplicateTxIDReturnsStoredOutcome(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		first := test.PerformRequest(t, s, "POST", "/api/v1/token/mint", mintPayload("mint-1"),
			test.HeadersWithIdempotencyKey("mint-key-0001"))
		require.Equal(t, http.StatusOK, first.Result().StatusCode)

		// a fresh idempotency key with a known txId falls through to the ledger
		second := test.PerformRequest(t, s, "POST", "/api/v1/token/mint", mintPayload("mint-1"),
			test.HeadersWithIdempotencyKey("mint-key-0002"))
		require.Equal(t, http.StatusOK, second.Result().StatusCode)

		var response types.TokenTransactionResponse
		test.ParseResponseBody(t, second, &response)
		assert.Equal(t, "CONFIRMED", *response.Status)

		assert.Len(t, scriptedChain(t, s).SentTxs, 1)
	})
}

func TestPostMintMissingIdempotencyKey(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "POST", "/api/v1/token/mint", mintPayload("mint-1"), nil)
		require.Equal(t, http.StatusBadRequest, res.Result().StatusCode)
	})
}

func TestPostMintInvalidIdempotencyKey(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "POST", "/api/v1/token/mint", mintPayload("mint-1"),
			test.HeadersWithIdempotencyKey("short"))
		require.Equal(t, http.StatusBadRequest, res.Result().StatusCode)
	})
}

func TestPostMintValidation(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		for _, payload := range []test.GenericPayload{
			{"walletAddress": testWallet, "amountWei": "100"},
			{"txId": "mint-1", "amountWei": "100"},
			{"txId": "mint-1", "walletAddress": "not-an-address", "amountWei": "100"},
			{"txId": "mint-1", "walletAddress": testWallet},
			{"txId": "mint-1", "walletAddress": testWallet, "amountWei": "1.5"},
		} {
			res := test.PerformRequest(t, s, "POST", "/api/v1/token/mint", payload,
				test.HeadersWithIdempotencyKey("mint-key-0001"))
			assert.Equal(t, http.StatusBadRequest, res.Result().StatusCode, res.Body.String())
		}

		assert.Empty(t, scriptedChain(t, s).SentTxs)
	})
}

func TestPostMintZeroAmount(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		payload := mintPayload("mint-1")
		payload["amountWei"] = "0"

		res := test.PerformRequest(t, s, "POST", "/api/v1/token/mint", payload,
			test.HeadersWithIdempotencyKey("mint-key-0001"))
		require.Equal(t, http.StatusBadRequest, res.Result().StatusCode)
	})
}

func TestPostMintRetriesExhausted(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		scriptedChain(t, s).SendErrs = []error{
			errors.New("connection refused"),
			errors.New("connection refused"),
			errors.New("connection refused"),
		}

		res := test.PerformRequest(t, s, "POST", "/api/v1/token/mint", mintPayload("mint-1"),
			test.HeadersWithIdempotencyKey("mint-key-0001"))
		require.Equal(t, http.StatusBadGateway, res.Result().StatusCode, res.Body.String())
	})
}

func TestPostMintCircuitOpen(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		ctx := context.Background()
		brk := s.Breakers.Get(breaker.ServiceBlockchainRPC)
		require.NotNil(t, brk)

		failing := func(ctx context.Context) error { return errors.New("connection refused") }
		for i := 0; i < s.Config.Breaker.FailureThreshold; i++ {
			require.Error(t, brk.Execute(ctx, failing))
		}

		res := test.PerformRequest(t, s, "POST", "/api/v1/token/mint", mintPayload("mint-1"),
			test.HeadersWithIdempotencyKey("mint-key-0001"))
		require.Equal(t, http.StatusServiceUnavailable, res.Result().StatusCode, res.Body.String())
		assert.NotEmpty(t, res.Header().Get("Retry-After"))

		assert.Empty(t, scriptedChain(t, s).SentTxs)
	})
}
