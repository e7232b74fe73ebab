package mgmt_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/test"
	"github/chapool/token-agent/internal/types"
)

func TestPostNonceResetRequiresSecret(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "POST", "/-/nonce/"+test.TestOperatorAddress+"/reset", nil, nil)
		require.Equal(t, http.StatusUnauthorized, res.Result().StatusCode)
	})
}

func TestPostNonceResetAdoptsChainState(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		// a submission advances the stored nonce to 1 while the chain stays at 0
		mint := test.PerformRequest(t, s, "POST", "/api/v1/token/mint", test.GenericPayload{
			"txId":          "mint-1",
			"walletAddress": "0x71C7656EC7ab88b098defB751B7401B5f6d8976F",
			"amountWei":     "100",
		}, test.HeadersWithIdempotencyKey("mint-key-0001"))
		require.Equal(t, http.StatusOK, mint.Result().StatusCode)

		res := test.PerformRequest(t, s, "POST", mgmtPath("/-/nonce/%s/reset", test.TestOperatorAddress), nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode, res.Body.String())

		var reset types.NonceResetResponse
		test.ParseResponseBody(t, res, &reset)
		assert.EqualValues(t, 0, *reset.Nonce)

		status := test.PerformRequest(t, s, "GET", mgmtPath("/-/nonce/%s", test.TestOperatorAddress), nil, nil)
		require.Equal(t, http.StatusOK, status.Result().StatusCode)

		var nonceStatus types.NonceStatusResponse
		test.ParseResponseBody(t, status, &nonceStatus)
		require.NotNil(t, nonceStatus.StoredNonce)
		assert.EqualValues(t, 0, *nonceStatus.StoredNonce)
		assert.True(t, *nonceStatus.InSync)
	})
}
