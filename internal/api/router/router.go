package router

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github/chapool/token-agent/internal/api"
	"github/chapool/token-agent/internal/api/handlers"
	"github/chapool/token-agent/internal/api/middleware"
)

// Init sets up the echo instance, the middleware chain and the route
// groups on s. Must be called after the server components are wired.
func Init(s *api.Server) {
	s.Echo = echo.New()

	s.Echo.Debug = s.Config.Echo.Debug
	s.Echo.HideBanner = true
	s.Echo.HidePort = true

	s.Echo.HTTPErrorHandler = HTTPErrorHandlerWithConfig(HTTPErrorHandlerConfig{
		HideInternalServerErrorDetails: s.Config.Echo.HideInternalServerErrorDetails,
	})

	// ---
	// General middleware
	if s.Config.Echo.EnableTrailingSlashMiddleware {
		s.Echo.Pre(echoMiddleware.RemoveTrailingSlash())
	}

	if s.Config.Echo.EnableRecoverMiddleware {
		s.Echo.Use(echoMiddleware.Recover())
	}

	if s.Config.Echo.EnableSecureMiddleware {
		s.Echo.Use(echoMiddleware.Secure())
	}

	if s.Config.Echo.EnableRequestIDMiddleware {
		s.Echo.Use(echoMiddleware.RequestID())
	}

	if s.Config.Echo.EnableLoggerMiddleware {
		level, err := zerolog.ParseLevel(s.Config.Logger.RequestLevel)
		if err != nil {
			log.Warn().Err(err).Str("level", s.Config.Logger.RequestLevel).Msg("Failed to parse request log level, falling back to debug")
			level = zerolog.DebugLevel
		}

		s.Echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Level:             level,
			LogRequestBody:    s.Config.Logger.LogRequestBody,
			LogRequestHeader:  s.Config.Logger.LogRequestHeader,
			LogResponseBody:   s.Config.Logger.LogResponseBody,
			LogResponseHeader: s.Config.Logger.LogResponseHeader,
		}))
	}

	if s.Config.Echo.EnableCORSMiddleware {
		s.Echo.Use(echoMiddleware.CORS())
	}

	s.Echo.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "token_agent",
		Registerer: s.Metrics.Registry,
	}))

	// ---
	// Initialize our general groups and set middleware to use above them
	s.Router = &api.Router{
		Routes: nil, // will be populated by handlers.AttachAllRoutes(s)

		// Unsecured base group
		Root: s.Echo.Group(""),

		// Admin and metrics endpoints, secured by the management secret.
		// The readiness and liveness probes stay public.
		Management: s.Echo.Group("/-", echoMiddleware.KeyAuthWithConfig(echoMiddleware.KeyAuthConfig{
			KeyLookup: "query:mgmt-secret",
			Validator: func(key string, _ echo.Context) (bool, error) {
				return key == s.Config.Management.Secret, nil
			},
			Skipper: func(c echo.Context) bool {
				switch c.Path() {
				case "/-/ready", "/-/healthy":
					return true
				}

				return false
			},
		})),

		APIV1Token: s.Echo.Group("/api/v1/token"),
	}

	handlers.AttachAllRoutes(s)
}
