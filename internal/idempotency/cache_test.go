package idempotency_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/token-agent/internal/idempotency"
	"github/chapool/token-agent/internal/kvstore"
)

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestValidateKey(t *testing.T) {
	cache := idempotency.NewCache(kvstore.NewMemoryStore(newMockClock()), idempotency.DefaultConfig())

	require.NoError(t, cache.ValidateKey("mint-2024-ab12"))
	require.NoError(t, cache.ValidateKey(strings.Repeat("a", 8)))
	require.NoError(t, cache.ValidateKey(strings.Repeat("a", 64)))

	assert.ErrorIs(t, cache.ValidateKey(""), idempotency.ErrInvalidKey)
	assert.ErrorIs(t, cache.ValidateKey("short"), idempotency.ErrInvalidKey)
	assert.ErrorIs(t, cache.ValidateKey(strings.Repeat("a", 65)), idempotency.ErrInvalidKey)
}

func TestPutGetRoundtrip(t *testing.T) {
	ctx := context.Background()
	cache := idempotency.NewCache(kvstore.NewMemoryStore(newMockClock()), idempotency.DefaultConfig())

	body := json.RawMessage(`{"txId":"mint-1","status":"CONFIRMED"}`)
	cache.Put(ctx, "/api/v1/token/mint", "mint-2024-ab12", &idempotency.Response{
		StatusCode: 200,
		Body:       body,
	})

	res := cache.Get(ctx, "/api/v1/token/mint", "mint-2024-ab12")
	require.NotNil(t, res)
	assert.Equal(t, 200, res.StatusCode)
	assert.JSONEq(t, string(body), string(res.Body))
}

func TestGetScopesByPath(t *testing.T) {
	ctx := context.Background()
	cache := idempotency.NewCache(kvstore.NewMemoryStore(newMockClock()), idempotency.DefaultConfig())

	cache.Put(ctx, "/api/v1/token/mint", "shared-key-01", &idempotency.Response{
		StatusCode: 200,
		Body:       json.RawMessage(`{"txId":"mint-1"}`),
	})

	assert.Nil(t, cache.Get(ctx, "/api/v1/token/burn", "shared-key-01"),
		"the same key on a different endpoint is a distinct request")
	assert.NotNil(t, cache.Get(ctx, "/api/v1/token/mint", "shared-key-01"))
}

func TestGetExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	clock := newMockClock()
	cfg := idempotency.DefaultConfig()
	cfg.TTL = time.Hour
	cache := idempotency.NewCache(kvstore.NewMemoryStore(clock), cfg)

	cache.Put(ctx, "/api/v1/token/mint", "mint-2024-ab12", &idempotency.Response{
		StatusCode: 200,
		Body:       json.RawMessage(`{}`),
	})

	clock.Advance(59 * time.Minute)
	assert.NotNil(t, cache.Get(ctx, "/api/v1/token/mint", "mint-2024-ab12"))

	clock.Advance(2 * time.Minute)
	assert.Nil(t, cache.Get(ctx, "/api/v1/token/mint", "mint-2024-ab12"))
}

// brokenStore fails every operation, standing in for an unreachable store.
type brokenStore struct{}

var errStoreDown = errors.New("store unavailable")

func (brokenStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errStoreDown
}

func (brokenStore) Set(ctx context.Context, key string, value string) error { return errStoreDown }

func (brokenStore) SetEx(ctx context.Context, key string, value string, ttl time.Duration) error {
	return errStoreDown
}

func (brokenStore) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	return false, errStoreDown
}

func (brokenStore) Del(ctx context.Context, keys ...string) error { return errStoreDown }

func (brokenStore) Incr(ctx context.Context, key string) (int64, error) { return 0, errStoreDown }

func (brokenStore) Exists(ctx context.Context, key string) (bool, error) {
	return false, errStoreDown
}

func TestStoreOutageDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	cache := idempotency.NewCache(brokenStore{}, idempotency.DefaultConfig())

	assert.Nil(t, cache.Get(ctx, "/api/v1/token/mint", "mint-2024-ab12"))

	// Put must not panic or surface the store error
	cache.Put(ctx, "/api/v1/token/mint", "mint-2024-ab12", &idempotency.Response{
		StatusCode: 200,
		Body:       json.RawMessage(`{}`),
	})
}

func TestGetIgnoresCorruptEntry(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore(newMockClock())
	cache := idempotency.NewCache(store, idempotency.DefaultConfig())

	require.NoError(t, store.Set(ctx, "idempotency:/api/v1/token/mint:mint-2024-ab12", "not json"))

	assert.Nil(t, cache.Get(ctx, "/api/v1/token/mint", "mint-2024-ab12"))
}
