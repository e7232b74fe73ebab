package breaker

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/chapool/token-agent/internal/kvstore"
)

// Clock is the minimal time source the breaker needs. Satisfied by
// time2.Clock.
type Clock interface {
	Now() time.Time
}

// Breaker gates calls to one named downstream. State lives in the shared
// coordination store so every server instance observes and contributes to
// the same circuit; transitions are linearized by the store's atomic
// primitives.
type Breaker struct {
	name  string
	store kvstore.Store
	clock Clock
	cfg   Config
}

// New creates a breaker for the given logical service name.
func New(name string, store kvstore.Store, clock Clock, cfg Config) *Breaker {
	log.Info().
		Str("name", name).
		Int("failure_threshold", cfg.FailureThreshold).
		Dur("timeout", cfg.Timeout).
		Msg("Circuit breaker initialized")

	return &Breaker{
		name:  name,
		store: store,
		clock: clock,
		cfg:   cfg,
	}
}

// Name returns the logical service name this breaker guards.
func (b *Breaker) Name() string {
	return b.name
}

func (b *Breaker) stateKey() string {
	return "circuit_breaker:" + b.name + ":state"
}

func (b *Breaker) failureCountKey() string {
	return "circuit_breaker:" + b.name + ":failures"
}

func (b *Breaker) successCountKey() string {
	return "circuit_breaker:" + b.name + ":successes"
}

func (b *Breaker) lastFailureKey() string {
	return "circuit_breaker:" + b.name + ":last_failure"
}

// Execute runs fn through the breaker: rejects immediately while OPEN,
// allows a single probe into HALF_OPEN after the timeout and updates the
// failure/success counters from the outcome.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	state, err := b.State(ctx)
	if err != nil {
		return err
	}

	if state == StateOpen {
		elapsed, err := b.timeoutElapsed(ctx)
		if err != nil {
			return err
		}

		if !elapsed {
			failures, err := b.failureCount(ctx)
			if err != nil {
				return err
			}

			return &OpenError{Name: b.name, FailureCount: failures}
		}

		// Timeout elapsed, let this call through as the recovery probe.
		if err := b.setState(ctx, StateHalfOpen); err != nil {
			return err
		}
		if err := b.store.Del(ctx, b.successCountKey()); err != nil {
			return errors.Wrap(err, "failed to reset success count")
		}

		log.Info().Str("name", b.name).Msg("Circuit breaker attempting recovery (half-open)")
	}

	callErr := fn(ctx)

	if callErr != nil && b.countsAsFailure(callErr) {
		if err := b.onFailure(ctx, callErr); err != nil {
			log.Error().Str("name", b.name).Err(err).Msg("Failed to record circuit breaker failure")
		}

		return callErr
	}

	if err := b.onSuccess(ctx); err != nil {
		log.Error().Str("name", b.name).Err(err).Msg("Failed to record circuit breaker success")
	}

	return callErr
}

func (b *Breaker) countsAsFailure(err error) bool {
	if b.cfg.IsFailure == nil {
		return true
	}

	return b.cfg.IsFailure(err)
}

func (b *Breaker) onSuccess(ctx context.Context) error {
	state, err := b.State(ctx)
	if err != nil {
		return err
	}

	switch state {
	case StateHalfOpen:
		successes, err := b.store.Incr(ctx, b.successCountKey())
		if err != nil {
			return errors.Wrap(err, "failed to increment success count")
		}

		log.Debug().
			Str("name", b.name).
			Int64("successes", successes).
			Int("threshold", b.cfg.SuccessThreshold).
			Msg("Circuit breaker success in half-open")

		if successes >= int64(b.cfg.SuccessThreshold) {
			if err := b.setState(ctx, StateClosed); err != nil {
				return err
			}
			if err := b.store.Del(ctx, b.failureCountKey(), b.successCountKey()); err != nil {
				return errors.Wrap(err, "failed to reset counters")
			}

			log.Info().Str("name", b.name).Msg("Circuit breaker recovered and closed")
		}
	case StateClosed:
		if err := b.store.Del(ctx, b.failureCountKey()); err != nil {
			return errors.Wrap(err, "failed to reset failure count")
		}
	case StateOpen:
		// success while open can only happen on racy transitions, ignore
	}

	return nil
}

func (b *Breaker) onFailure(ctx context.Context, cause error) error {
	state, err := b.State(ctx)
	if err != nil {
		return err
	}

	switch state {
	case StateHalfOpen:
		// any failure during the probe reopens immediately
		if err := b.setState(ctx, StateOpen); err != nil {
			return err
		}
		if err := b.store.Del(ctx, b.successCountKey()); err != nil {
			return errors.Wrap(err, "failed to reset success count")
		}
		if _, err := b.recordFailure(ctx); err != nil {
			return err
		}

		log.Warn().Str("name", b.name).Err(cause).Msg("Circuit breaker failed in half-open, reopening")
	case StateClosed:
		failures, err := b.recordFailure(ctx)
		if err != nil {
			return err
		}

		log.Warn().
			Str("name", b.name).
			Int64("failures", failures).
			Int("threshold", b.cfg.FailureThreshold).
			Err(cause).
			Msg("Circuit breaker failure")

		if failures >= int64(b.cfg.FailureThreshold) {
			if err := b.setState(ctx, StateOpen); err != nil {
				return err
			}

			log.Error().
				Str("name", b.name).
				Int64("failures", failures).
				Msg("Circuit breaker opened")
		}
	case StateOpen:
		if _, err := b.recordFailure(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (b *Breaker) recordFailure(ctx context.Context) (int64, error) {
	failures, err := b.store.Incr(ctx, b.failureCountKey())
	if err != nil {
		return 0, errors.Wrap(err, "failed to increment failure count")
	}

	now := strconv.FormatInt(b.clock.Now().UnixMilli(), 10)
	if err := b.store.Set(ctx, b.lastFailureKey(), now); err != nil {
		return 0, errors.Wrap(err, "failed to record failure timestamp")
	}

	return failures, nil
}

// State returns the current circuit state, defaulting to CLOSED.
func (b *Breaker) State(ctx context.Context) (State, error) {
	val, ok, err := b.store.Get(ctx, b.stateKey())
	if err != nil {
		return StateClosed, errors.Wrap(err, "failed to read breaker state")
	}
	if !ok {
		return StateClosed, nil
	}

	return State(val), nil
}

func (b *Breaker) setState(ctx context.Context, state State) error {
	if err := b.store.Set(ctx, b.stateKey(), string(state)); err != nil {
		return errors.Wrap(err, "failed to set breaker state")
	}

	log.Info().Str("name", b.name).Str("state", string(state)).Msg("Circuit breaker state changed")

	return nil
}

func (b *Breaker) failureCount(ctx context.Context) (int64, error) {
	return b.readCount(ctx, b.failureCountKey())
}

func (b *Breaker) successCount(ctx context.Context) (int64, error) {
	return b.readCount(ctx, b.successCountKey())
}

func (b *Breaker) readCount(ctx context.Context, key string) (int64, error) {
	val, ok, err := b.store.Get(ctx, key)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read breaker counter")
	}
	if !ok {
		return 0, nil
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "breaker counter is not an integer")
	}

	return count, nil
}

func (b *Breaker) lastFailureAt(ctx context.Context) (*time.Time, error) {
	val, ok, err := b.store.Get(ctx, b.lastFailureKey())
	if err != nil {
		return nil, errors.Wrap(err, "failed to read last failure timestamp")
	}
	if !ok {
		return nil, nil
	}

	millis, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "last failure timestamp is not an integer")
	}

	t := time.UnixMilli(millis)

	return &t, nil
}

func (b *Breaker) timeoutElapsed(ctx context.Context) (bool, error) {
	lastFailure, err := b.lastFailureAt(ctx)
	if err != nil {
		return false, err
	}
	if lastFailure == nil {
		return true, nil
	}

	return b.clock.Now().Sub(*lastFailure) >= b.cfg.Timeout, nil
}

// Status returns a snapshot of the breaker for observability.
func (b *Breaker) Status(ctx context.Context) (*Status, error) {
	state, err := b.State(ctx)
	if err != nil {
		return nil, err
	}

	failures, err := b.failureCount(ctx)
	if err != nil {
		return nil, err
	}

	successes, err := b.successCount(ctx)
	if err != nil {
		return nil, err
	}

	lastFailure, err := b.lastFailureAt(ctx)
	if err != nil {
		return nil, err
	}

	return &Status{
		Name:             b.name,
		State:            state,
		FailureCount:     failures,
		SuccessCount:     successes,
		FailureThreshold: b.cfg.FailureThreshold,
		SuccessThreshold: b.cfg.SuccessThreshold,
		Timeout:          b.cfg.Timeout,
		LastFailureAt:    lastFailure,
	}, nil
}

// Reset forcibly returns the breaker to CLOSED with cleared counters.
// Administrative escape hatch, bypasses the normal transition rules.
func (b *Breaker) Reset(ctx context.Context) error {
	if err := b.setState(ctx, StateClosed); err != nil {
		return err
	}

	if err := b.store.Del(ctx, b.failureCountKey(), b.successCountKey(), b.lastFailureKey()); err != nil {
		return errors.Wrap(err, "failed to reset breaker counters")
	}

	log.Warn().Str("name", b.name).Msg("Circuit breaker manually reset to closed")

	return nil
}
