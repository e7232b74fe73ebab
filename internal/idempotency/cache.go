package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github/chapool/token-agent/internal/kvstore"
	"github/chapool/token-agent/internal/util"
)

var (
	// ErrInvalidKey indicates a client key outside the accepted length range.
	ErrInvalidKey = errors.New("idempotency key must be between min and max length")
)

// Response is the cached outcome of a previously completed request.
type Response struct {
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

// Config bounds client keys and controls cache retention.
type Config struct {
	TTL       time.Duration
	MinKeyLen int
	MaxKeyLen int
}

func DefaultConfig() Config {
	return Config{
		TTL:       24 * time.Hour,
		MinKeyLen: 8,
		MaxKeyLen: 64,
	}
}

// Cache stores request outcomes keyed by endpoint path and client-chosen key.
// Lookups degrade to a miss when the backing store is unavailable so that a
// cache outage never blocks request processing.
type Cache struct {
	store kvstore.Store
	cfg   Config
}

func NewCache(store kvstore.Store, cfg Config) *Cache {
	return &Cache{
		store: store,
		cfg:   cfg,
	}
}

// ValidateKey checks the client-supplied key against the configured bounds.
func (c *Cache) ValidateKey(key string) error {
	if len(key) < c.cfg.MinKeyLen || len(key) > c.cfg.MaxKeyLen {
		return errors.Wrapf(ErrInvalidKey, "got %d chars, want %d-%d", len(key), c.cfg.MinKeyLen, c.cfg.MaxKeyLen)
	}

	return nil
}

func (c *Cache) cacheKey(path string, key string) string {
	return fmt.Sprintf("idempotency:%s:%s", path, key)
}

// Get returns the cached response for (path, key) or nil on a miss. Store
// errors are logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, path string, key string) *Response {
	log := util.LogFromContext(ctx).With().Str("idempotencyKey", key).Logger()

	raw, ok, err := c.store.Get(ctx, c.cacheKey(path, key))
	if err != nil {
		log.Warn().Err(err).Msg("Idempotency cache unavailable, treating as miss")
		return nil
	}

	if !ok {
		return nil
	}

	res := &Response{}
	if err := json.Unmarshal([]byte(raw), res); err != nil {
		log.Warn().Err(err).Msg("Failed to decode cached idempotency response, treating as miss")
		return nil
	}

	return res
}

// Put stores a completed response under (path, key) with the configured TTL.
// Store errors are logged and swallowed, the request has already succeeded.
func (c *Cache) Put(ctx context.Context, path string, key string, res *Response) {
	log := util.LogFromContext(ctx).With().Str("idempotencyKey", key).Logger()

	raw, err := json.Marshal(res)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode idempotency response, skipping cache")
		return
	}

	if err := c.store.SetEx(ctx, c.cacheKey(path, key), string(raw), c.cfg.TTL); err != nil {
		log.Warn().Err(err).Msg("Failed to store idempotency response")
	}
}
