package nonce_test

import (
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/token-agent/internal/kvstore"
	"github/chapool/token-agent/internal/test"
	"github/chapool/token-agent/internal/token/nonce"
)

const testWallet = "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func newCoordinator(t *testing.T, chainClient *test.ScriptedChainClient) (*nonce.Coordinator, *kvstore.MemoryStore) {
	t.Helper()

	store := kvstore.NewMemoryStore(realClock{})
	cfg := nonce.DefaultConfig()
	cfg.AcquireBaseDelay = 0
	cfg.AcquireMaxDelay = 0

	return nonce.NewCoordinator(store, chainClient, cfg), store
}

func TestGetCurrentNonceAdoptsChainState(t *testing.T) {
	ctx := t.Context()

	chainClient := test.NewScriptedChainClient()
	chainClient.SetNonce(testWallet, 7)

	coordinator, _ := newCoordinator(t, chainClient)

	got, err := coordinator.GetCurrentNonce(ctx, testWallet, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got)
}

func TestGetCurrentNonceUsesMaxOfStoredAndChain(t *testing.T) {
	ctx := t.Context()

	chainClient := test.NewScriptedChainClient()
	chainClient.SetNonce(testWallet, 3)

	coordinator, _ := newCoordinator(t, chainClient)

	// reserve a few nonces to advance the stored value past the chain
	for i := 0; i < 3; i++ {
		_, err := coordinator.ReserveNonce(ctx, testWallet)
		require.NoError(t, err)
	}

	// stored is now 6 while the chain still reports 3
	got, err := coordinator.GetCurrentNonce(ctx, testWallet, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), got)

	// chain overtakes the stored value, e.g. a transaction sent from
	// outside this coordinator
	chainClient.SetNonce(testWallet, 10)

	got, err = coordinator.GetCurrentNonce(ctx, testWallet, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), got)
}

func TestReserveNonceSequence(t *testing.T) {
	ctx := t.Context()

	chainClient := test.NewScriptedChainClient()
	chainClient.SetNonce(testWallet, 5)

	coordinator, _ := newCoordinator(t, chainClient)

	for want := uint64(5); want < 10; want++ {
		got, err := coordinator.ReserveNonce(ctx, testWallet)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestReserveNonceConcurrentUniqueness(t *testing.T) {
	ctx := t.Context()

	chainClient := test.NewScriptedChainClient()
	chainClient.SetNonce(testWallet, 100)

	store := kvstore.NewMemoryStore(realClock{})
	cfg := nonce.DefaultConfig()
	cfg.AcquireBaseDelay = time.Millisecond
	cfg.AcquireMaxDelay = 5 * time.Millisecond
	cfg.AcquireRetries = 1000

	coordinator := nonce.NewCoordinator(store, chainClient, cfg)

	const workers = 20

	var mu sync.Mutex
	var wg sync.WaitGroup
	got := make([]uint64, 0, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			n, err := coordinator.ReserveNonce(ctx, testWallet)
			assert.NoError(t, err)

			mu.Lock()
			got = append(got, n)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, got, workers)

	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	for i, n := range got {
		assert.Equal(t, uint64(100+i), n, "reserved nonces must be the contiguous unique range")
	}
}

func TestReserveNonceCaseInsensitiveWallet(t *testing.T) {
	ctx := t.Context()

	chainClient := test.NewScriptedChainClient()
	chainClient.SetNonce(testWallet, 0)

	coordinator, _ := newCoordinator(t, chainClient)

	first, err := coordinator.ReserveNonce(ctx, testWallet)
	require.NoError(t, err)

	// same wallet in different casing must share the counter
	second, err := coordinator.ReserveNonce(ctx, "0X71C7656EC7AB88B098DEFB751B7401B5F6D8976F")
	require.NoError(t, err)

	assert.Equal(t, first+1, second)
}

func TestResetToChain(t *testing.T) {
	ctx := t.Context()

	chainClient := test.NewScriptedChainClient()
	chainClient.SetNonce(testWallet, 4)

	coordinator, _ := newCoordinator(t, chainClient)

	for i := 0; i < 5; i++ {
		_, err := coordinator.ReserveNonce(ctx, testWallet)
		require.NoError(t, err)
	}

	got, err := coordinator.ResetToChain(ctx, testWallet)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), got)

	// the next reservation starts over from chain state
	reserved, err := coordinator.ReserveNonce(ctx, testWallet)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), reserved)
}

func TestHandleSubmissionError(t *testing.T) {
	ctx := t.Context()

	chainClient := test.NewScriptedChainClient()
	chainClient.SetNonce(testWallet, 42)

	coordinator, _ := newCoordinator(t, chainClient)

	corrected, err := coordinator.HandleSubmissionError(ctx, testWallet, 17)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), corrected)
}

func TestAcquireLeaseTimeout(t *testing.T) {
	ctx := t.Context()

	chainClient := test.NewScriptedChainClient()
	coordinator, store := newCoordinator(t, chainClient)

	// occupy the lease out-of-band
	ok, err := store.SetNX(ctx, "nonce:lock:"+normalized(testWallet), "someone-else", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = coordinator.ReserveNonce(ctx, testWallet)
	require.Error(t, err)

	var leaseErr *nonce.LeaseTimeoutError
	require.True(t, errors.As(err, &leaseErr))
	assert.Equal(t, nonce.DefaultConfig().AcquireRetries, leaseErr.Attempts)
}

func TestGetStatus(t *testing.T) {
	ctx := t.Context()

	chainClient := test.NewScriptedChainClient()
	chainClient.SetNonce(testWallet, 5)

	coordinator, store := newCoordinator(t, chainClient)

	// never used: no stored nonce, not in sync
	status, err := coordinator.GetStatus(ctx, testWallet)
	require.NoError(t, err)
	assert.Nil(t, status.StoredNonce)
	assert.Equal(t, uint64(5), status.ChainNonce)
	assert.False(t, status.InSync)
	assert.False(t, status.IsLocked)

	// syncing from chain brings it in sync
	_, err = coordinator.GetCurrentNonce(ctx, testWallet, false)
	require.NoError(t, err)

	status, err = coordinator.GetStatus(ctx, testWallet)
	require.NoError(t, err)
	require.NotNil(t, status.StoredNonce)
	assert.Equal(t, uint64(5), *status.StoredNonce)
	assert.True(t, status.InSync)

	// a reservation advances the stored value out of sync
	_, err = coordinator.ReserveNonce(ctx, testWallet)
	require.NoError(t, err)

	status, err = coordinator.GetStatus(ctx, testWallet)
	require.NoError(t, err)
	require.NotNil(t, status.StoredNonce)
	assert.Equal(t, uint64(6), *status.StoredNonce)
	assert.False(t, status.InSync)

	// a held lease is reported
	ok, err := store.SetNX(ctx, "nonce:lock:"+normalized(testWallet), "holder", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	status, err = coordinator.GetStatus(ctx, testWallet)
	require.NoError(t, err)
	assert.True(t, status.IsLocked)
}

func normalized(wallet string) string {
	return strings.ToLower(wallet)
}
