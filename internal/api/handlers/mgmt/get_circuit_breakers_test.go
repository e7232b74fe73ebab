package mgmt_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/test"
	"github/chapool/token-agent/internal/token/breaker"
	"github/chapool/token-agent/internal/types"
)

func tripBreaker(t *testing.T, s *api.Server) {
	t.Helper()

	brk := s.Breakers.Get(breaker.ServiceBlockchainRPC)
	require.NotNil(t, brk)

	ctx := context.Background()
	failing := func(ctx context.Context) error { return errors.New("connection refused") }
	for i := 0; i < s.Config.Breaker.FailureThreshold; i++ {
		require.Error(t, brk.Execute(ctx, failing))
	}
}

func TestGetCircuitBreakersRequiresSecret(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/-/circuit-breakers", nil, nil)
		require.Equal(t, http.StatusUnauthorized, res.Result().StatusCode)
	})
}

func TestGetCircuitBreakersList(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", mgmtPath("/-/circuit-breakers"), nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode, res.Body.String())

		var list types.CircuitBreakerListResponse
		test.ParseResponseBody(t, res, &list)

		require.Len(t, list.Breakers, 1)
		assert.Equal(t, breaker.ServiceBlockchainRPC, *list.Breakers[0].Name)
		assert.Equal(t, string(breaker.StateClosed), *list.Breakers[0].State)
	})
}

func TestGetCircuitBreakerByName(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		tripBreaker(t, s)

		res := test.PerformRequest(t, s, "GET", mgmtPath("/-/circuit-breakers/%s", breaker.ServiceBlockchainRPC), nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode, res.Body.String())

		var status types.CircuitBreakerStatusResponse
		test.ParseResponseBody(t, res, &status)

		assert.Equal(t, string(breaker.StateOpen), *status.State)
		assert.EqualValues(t, s.Config.Breaker.FailureThreshold, status.FailureCount)
		require.NotNil(t, status.LastFailureAt)
	})
}

func TestGetCircuitBreakerUnknownName(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", mgmtPath("/-/circuit-breakers/%s", "unknown"), nil, nil)
		require.Equal(t, http.StatusNotFound, res.Result().StatusCode)
	})
}
