package kvstore_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/token-agent/internal/kvstore"
)

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
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

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := t.Context()
	store := kvstore.NewMemoryStore(newMockClock())

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "key", "value"))

	val, ok, err := store.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "value", val)
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := t.Context()
	clock := newMockClock()
	store := kvstore.NewMemoryStore(clock)

	require.NoError(t, store.SetEx(ctx, "key", "value", 30*time.Second))

	_, ok, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)

	clock.Advance(31 * time.Second)

	_, ok, err = store.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok, "value must expire after its TTL")
}

func TestMemoryStoreSetNXLease(t *testing.T) {
	ctx := t.Context()
	clock := newMockClock()
	store := kvstore.NewMemoryStore(clock)

	ok, err := store.SetNX(ctx, "lock", "holder-1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// second holder must not steal the lease
	ok, err = store.SetNX(ctx, "lock", "holder-2", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	val, exists, err := store.Get(ctx, "lock")
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, "holder-1", val)

	// expired leases are acquirable again
	clock.Advance(31 * time.Second)

	ok, err = store.SetNX(ctx, "lock", "holder-2", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreIncr(t *testing.T) {
	ctx := t.Context()
	store := kvstore.NewMemoryStore(newMockClock())

	n, err := store.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, store.Set(ctx, "string", "abc"))
	_, err = store.Incr(ctx, "string")
	assert.Error(t, err)
}

func TestMemoryStoreDelAndExists(t *testing.T) {
	ctx := t.Context()
	store := kvstore.NewMemoryStore(newMockClock())

	require.NoError(t, store.Set(ctx, "a", "1"))
	require.NoError(t, store.Set(ctx, "b", "2"))

	ok, err := store.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Del(ctx, "a", "b"))

	ok, err = store.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}
