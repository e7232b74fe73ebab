package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type LoggerConfig struct {
	Skipper           echoMiddleware.Skipper
	Level             zerolog.Level
	LogRequestBody    bool
	LogRequestHeader  bool
	LogResponseBody   bool
	LogResponseHeader bool
}

var DefaultLoggerConfig = LoggerConfig{
	Skipper: echoMiddleware.DefaultSkipper,
	Level:   zerolog.DebugLevel,
}

// Logger with the default config, see LoggerWithConfig.
func Logger() echo.MiddlewareFunc {
	return LoggerWithConfig(DefaultLoggerConfig)
}

// LoggerWithConfig attaches a request-scoped zerolog logger to the request
// context (retrievable via util.LogFromContext) and emits one log line per
// handled request.
func LoggerWithConfig(config LoggerConfig) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultLoggerConfig.Skipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			start := time.Now()
			req := c.Request()
			res := c.Response()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}

			l := log.With().
				Str("id", id).
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("remote_ip", c.RealIP()).
				Logger()

			if config.LogRequestHeader {
				l = l.With().Interface("req_header", req.Header).Logger()
			}

			if config.LogRequestBody && req.Body != nil {
				body, err := io.ReadAll(req.Body)
				if err == nil {
					l = l.With().Bytes("req_body", body).Logger()
					req.Body = io.NopCloser(bytes.NewReader(body))
				}
			}

			var resBody *bytes.Buffer
			if config.LogResponseBody {
				resBody = new(bytes.Buffer)
				res.Writer = &bodyCaptureWriter{ResponseWriter: res.Writer, body: resBody}
			}

			c.SetRequest(req.WithContext(l.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			evt := l.WithLevel(config.Level).
				Int("status", res.Status).
				Int64("bytes_out", res.Size).
				Dur("duration", time.Since(start))

			if config.LogResponseHeader {
				evt = evt.Interface("res_header", res.Header())
			}

			if resBody != nil {
				evt = evt.Bytes("res_body", resBody.Bytes())
			}

			evt.Msg("Request handled")

			return err
		}
	}
}

type bodyCaptureWriter struct {
	http.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)

	return w.ResponseWriter.Write(b)
}
