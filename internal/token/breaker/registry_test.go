package breaker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/token-agent/internal/kvstore"
	"github/chapool/token-agent/internal/token/breaker"
)

func TestRegistryRegisterIsIdempotent(t *testing.T) {
	clock := newMockClock()
	r := breaker.NewRegistry(kvstore.NewMemoryStore(clock), clock)

	b1 := r.Register(breaker.ServiceBlockchainRPC, breaker.DefaultConfig())
	b2 := r.Register(breaker.ServiceBlockchainRPC, breaker.DefaultConfig())
	require.NotNil(t, b1)
	assert.Same(t, b1, b2)

	assert.Same(t, b1, r.Get(breaker.ServiceBlockchainRPC))
	assert.Nil(t, r.Get("unknown"))
}

func TestRegistryAllSortedByName(t *testing.T) {
	clock := newMockClock()
	r := breaker.NewRegistry(kvstore.NewMemoryStore(clock), clock)

	r.Register("signer", breaker.DefaultConfig())
	r.Register("blockchain-rpc", breaker.DefaultConfig())

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "blockchain-rpc", all[0].Name())
	assert.Equal(t, "signer", all[1].Name())
}
