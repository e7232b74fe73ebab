package router

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github/chapool/token-agent/internal/api/httperrors"
	"github/chapool/token-agent/internal/types"
	"github/chapool/token-agent/internal/util"
)

type HTTPErrorHandlerConfig struct {
	HideInternalServerErrorDetails bool
}

// HTTPErrorHandlerWithConfig renders every error bubbling out of a handler
// as a structured public error payload.
func HTTPErrorHandlerWithConfig(config HTTPErrorHandlerConfig) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var code int
		var payload interface{}

		switch errorValue := err.(type) {
		case *httperrors.HTTPError:
			code = int(*errorValue.Code)

			if errorValue.Internal != nil {
				util.LogFromEchoContext(c).Warn().Err(errorValue.Internal).Msg("Internal error in HTTP error")

				if !config.HideInternalServerErrorDetails && errorValue.Detail == "" {
					errorValue.Detail = errorValue.Internal.Error()
				}
			}

			payload = errorValue
		case *httperrors.HTTPValidationError:
			code = int(*errorValue.Code)
			payload = errorValue
		case *echo.HTTPError:
			code = errorValue.Code

			publicError := &httperrors.HTTPError{
				PublicHTTPError: types.PublicHTTPError{
					Code:  swag.Int64(int64(errorValue.Code)),
					Type:  swag.String(httperrors.HTTPErrorTypeGeneric),
					Title: swag.String(http.StatusText(errorValue.Code)),
				},
			}

			if msg, ok := errorValue.Message.(string); ok && msg != http.StatusText(errorValue.Code) {
				publicError.Detail = msg
			}

			if errorValue.Internal != nil && !config.HideInternalServerErrorDetails {
				publicError.Detail = errorValue.Internal.Error()
			}

			payload = publicError
		default:
			code = http.StatusInternalServerError

			if config.HideInternalServerErrorDetails {
				payload = httperrors.NewHTTPError(code, httperrors.HTTPErrorTypeGeneric, http.StatusText(code))
			} else {
				payload = httperrors.NewHTTPErrorWithDetail(code, httperrors.HTTPErrorTypeGeneric, http.StatusText(code), err.Error())
			}
		}

		if c.Response().Committed {
			return
		}

		if c.Request().Method == http.MethodHead {
			if err := c.NoContent(code); err != nil {
				log.Error().Err(err).Msg("Failed to send empty error response")
			}

			return
		}

		if err := c.JSON(code, payload); err != nil {
			log.Error().Err(err).Msg("Failed to send error response")
		}
	}
}
