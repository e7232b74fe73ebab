package kvstore

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Clock is the minimal time source the memory store needs for TTL
// bookkeeping. Satisfied by time2.Clock.
type Clock interface {
	Now() time.Time
}

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is an in-process Store for tests and local development.
// It honors TTLs against the injected clock so expiry behavior can be
// tested deterministically.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	clock   Clock
}

// NewMemoryStore returns an empty MemoryStore using the given clock.
func NewMemoryStore(clock Clock) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		clock:   clock,
	}
}

// get returns the live entry for key, pruning it if expired. Caller must hold mu.
func (s *MemoryStore) get(key string) (entry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return entry{}, false
	}

	if !e.expiresAt.IsZero() && !s.clock.Now().Before(e.expiresAt) {
		delete(s.entries, key)
		return entry{}, false
	}

	return e, true
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.get(key)
	if !ok {
		return "", false, nil
	}

	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{value: value}

	return nil
}

func (s *MemoryStore) SetEx(_ context.Context, key string, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{value: value, expiresAt: s.clock.Now().Add(ttl)}

	return nil
}

func (s *MemoryStore) SetNX(_ context.Context, key string, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.get(key); ok {
		return false, nil
	}

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.clock.Now().Add(ttl)
	}
	s.entries[key] = e

	return true, nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.entries, key)
	}

	return nil
}

func (s *MemoryStore) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	val := int64(0)
	if e, ok := s.get(key); ok {
		parsed, err := strconv.ParseInt(e.value, 10, 64)
		if err != nil {
			return 0, errors.Wrap(err, "value is not an integer")
		}
		val = parsed
	}

	val++
	// Incr preserves a previously set expiry, matching Redis semantics.
	e := s.entries[key]
	e.value = strconv.FormatInt(val, 10)
	s.entries[key] = e

	return val, nil
}

func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.get(key)

	return ok, nil
}
