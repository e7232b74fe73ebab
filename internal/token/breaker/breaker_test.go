package breaker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/token-agent/internal/kvstore"
	"github/chapool/token-agent/internal/token/breaker"
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

func newBreaker(clock *mockClock) *breaker.Breaker {
	cfg := breaker.Config{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}

	return breaker.New("rpc", kvstore.NewMemoryStore(clock), clock, cfg)
}

var errDownstream = errors.New("connection refused")

func failCall(ctx context.Context) error { return errDownstream }
func okCall(ctx context.Context) error   { return nil }

func tripOpen(t *testing.T, ctx context.Context, b *breaker.Breaker) {
	t.Helper()

	for i := 0; i < 3; i++ {
		err := b.Execute(ctx, failCall)
		require.ErrorIs(t, err, errDownstream)
	}

	state, err := b.State(ctx)
	require.NoError(t, err)
	require.Equal(t, breaker.StateOpen, state)
}

func TestBreakerOpensAfterFailureThreshold(t *testing.T) {
	ctx := context.Background()
	clock := newMockClock()
	b := newBreaker(clock)

	// below threshold the circuit stays closed
	for i := 0; i < 2; i++ {
		err := b.Execute(ctx, failCall)
		require.ErrorIs(t, err, errDownstream)
	}

	state, err := b.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, breaker.StateClosed, state)

	err = b.Execute(ctx, failCall)
	require.ErrorIs(t, err, errDownstream)

	state, err = b.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, breaker.StateOpen, state)
}

func TestBreakerRejectsWhileOpen(t *testing.T) {
	ctx := context.Background()
	clock := newMockClock()
	b := newBreaker(clock)

	tripOpen(t, ctx, b)

	called := false
	err := b.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})

	var openErr *breaker.OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, "rpc", openErr.Name)
	assert.EqualValues(t, 3, openErr.FailureCount)
	assert.False(t, called, "open circuit must not touch the downstream")
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	ctx := context.Background()
	clock := newMockClock()
	b := newBreaker(clock)

	for i := 0; i < 2; i++ {
		require.ErrorIs(t, b.Execute(ctx, failCall), errDownstream)
	}

	require.NoError(t, b.Execute(ctx, okCall))

	// the counter restarted, two more failures must not open the circuit
	for i := 0; i < 2; i++ {
		require.ErrorIs(t, b.Execute(ctx, failCall), errDownstream)
	}

	state, err := b.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, breaker.StateClosed, state)
}

func TestBreakerProbesAfterTimeout(t *testing.T) {
	ctx := context.Background()
	clock := newMockClock()
	b := newBreaker(clock)

	tripOpen(t, ctx, b)

	clock.Advance(29 * time.Second)

	var openErr *breaker.OpenError
	require.ErrorAs(t, b.Execute(ctx, okCall), &openErr)

	clock.Advance(2 * time.Second)

	called := false
	require.NoError(t, b.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	}))
	assert.True(t, called, "probe call must reach the downstream")

	state, err := b.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, breaker.StateHalfOpen, state)
}

func TestBreakerClosesAfterSuccessThreshold(t *testing.T) {
	ctx := context.Background()
	clock := newMockClock()
	b := newBreaker(clock)

	tripOpen(t, ctx, b)
	clock.Advance(31 * time.Second)

	require.NoError(t, b.Execute(ctx, okCall))

	state, err := b.State(ctx)
	require.NoError(t, err)
	require.Equal(t, breaker.StateHalfOpen, state)

	require.NoError(t, b.Execute(ctx, okCall))

	state, err = b.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, breaker.StateClosed, state)

	status, err := b.Status(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, status.FailureCount)
	assert.EqualValues(t, 0, status.SuccessCount)
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	ctx := context.Background()
	clock := newMockClock()
	b := newBreaker(clock)

	tripOpen(t, ctx, b)
	clock.Advance(31 * time.Second)

	require.ErrorIs(t, b.Execute(ctx, failCall), errDownstream)

	state, err := b.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, breaker.StateOpen, state)

	// the failed probe refreshed the failure timestamp, so the circuit
	// rejects for another full timeout window
	clock.Advance(29 * time.Second)

	var openErr *breaker.OpenError
	require.ErrorAs(t, b.Execute(ctx, okCall), &openErr)
}

func TestBreakerIsFailurePredicate(t *testing.T) {
	ctx := context.Background()
	clock := newMockClock()
	cfg := breaker.Config{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          30 * time.Second,
		IsFailure: func(err error) bool {
			return errors.Is(err, errDownstream)
		},
	}
	b := breaker.New("rpc", kvstore.NewMemoryStore(clock), clock, cfg)

	errClient := errors.New("invalid argument")
	require.ErrorIs(t, b.Execute(ctx, func(ctx context.Context) error {
		return errClient
	}), errClient)

	state, err := b.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, breaker.StateClosed, state, "client errors must not trip the circuit")

	require.ErrorIs(t, b.Execute(ctx, failCall), errDownstream)

	state, err = b.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, breaker.StateOpen, state)
}

func TestBreakerReset(t *testing.T) {
	ctx := context.Background()
	clock := newMockClock()
	b := newBreaker(clock)

	tripOpen(t, ctx, b)

	require.NoError(t, b.Reset(ctx))

	status, err := b.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, breaker.StateClosed, status.State)
	assert.EqualValues(t, 0, status.FailureCount)
	assert.Nil(t, status.LastFailureAt)

	require.NoError(t, b.Execute(ctx, okCall))
}

func TestBreakerStatus(t *testing.T) {
	ctx := context.Background()
	clock := newMockClock()
	b := newBreaker(clock)

	status, err := b.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rpc", status.Name)
	assert.Equal(t, breaker.StateClosed, status.State)
	assert.Equal(t, 3, status.FailureThreshold)
	assert.Equal(t, 2, status.SuccessThreshold)
	assert.Equal(t, 30*time.Second, status.Timeout)
	assert.Nil(t, status.LastFailureAt)

	require.ErrorIs(t, b.Execute(ctx, failCall), errDownstream)

	status, err = b.Status(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, status.FailureCount)
	require.NotNil(t, status.LastFailureAt)
	assert.Equal(t, clock.Now().UnixMilli(), status.LastFailureAt.UnixMilli())
}
