package middleware

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/api/httperrors"
	"github/chapool/token-agent/internal/idempotency"
	"github/chapool/token-agent/internal/util"
)

const (
	// HeaderIdempotencyKey carries the client-chosen deduplication key.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotencyReplayed marks a response served from the cache.
	HeaderIdempotencyReplayed = "Idempotency-Replayed"
)

// Idempotency requires an Idempotency-Key header on the request, replays
// the cached response for keys seen before and stores the response of
// successfully completed requests. Attach to mutating routes only.
func Idempotency(s *api.Server) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			key := c.Request().Header.Get(HeaderIdempotencyKey)
			if key == "" {
				return httperrors.ErrBadRequestMissingIdempotencyKey
			}

			if err := s.Idempotency.ValidateKey(key); err != nil {
				return httperrors.NewHTTPErrorWithDetail(
					http.StatusBadRequest,
					httperrors.HTTPErrorTypeInvalidIdempotencyKey,
					"Idempotency-Key header is invalid.",
					err.Error(),
				)
			}

			// deduplication is scoped per route, the same key may be used
			// on different endpoints
			path := c.Path()

			if cached := s.Idempotency.Get(ctx, path, key); cached != nil {
				s.Metrics.IdempotencyRequests.WithLabelValues("hit").Inc()
				util.LogFromEchoContext(c).Info().Str("idempotencyKey", key).Msg("Replaying cached response for idempotency key")

				c.Response().Header().Set(HeaderIdempotencyReplayed, "true")

				return c.JSONBlob(cached.StatusCode, cached.Body)
			}

			s.Metrics.IdempotencyRequests.WithLabelValues("miss").Inc()

			res := c.Response()
			body := new(bytes.Buffer)
			res.Writer = &bodyCaptureWriter{ResponseWriter: res.Writer, body: body}

			if err := next(c); err != nil {
				return err
			}

			// only successful outcomes are worth replaying, errors may
			// resolve on a retry
			if res.Status >= http.StatusOK && res.Status < http.StatusMultipleChoices {
				s.Idempotency.Put(ctx, path, key, &idempotency.Response{
					StatusCode: res.Status,
					Body:       body.Bytes(),
				})
			}

			return nil
		}
	}
}
