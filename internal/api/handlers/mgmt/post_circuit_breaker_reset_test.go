package mgmt_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/test"
	"github/chapool/token-agent/internal/token/breaker"
	"github/chapool/token-agent/internal/types"
)

func TestPostCircuitBreakerReset(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		tripBreaker(t, s)

		res := test.PerformRequest(t, s, "POST", mgmtPath("/-/circuit-breakers/%s/reset", breaker.ServiceBlockchainRPC), nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode, res.Body.String())

		var status types.CircuitBreakerStatusResponse
		test.ParseResponseBody(t, res, &status)

		assert.Equal(t, string(breaker.StateClosed), *status.State)
		assert.Zero(t, status.FailureCount)
		assert.Nil(t, status.LastFailureAt)
	})
}

func TestPostCircuitBreakerResetUnknownName(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "POST", mgmtPath("/-/circuit-breakers/%s/reset", "unknown"), nil, nil)
		require.Equal(t, http.StatusNotFound, res.Result().StatusCode)
	})
}
