package util

import (
	"net/http"

	openapierrors "github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github/chapool/token-agent/internal/api/httperrors"
	"github/chapool/token-agent/internal/types"
)

// Validatable is implemented by all payload types in internal/types.
type Validatable interface {
	Validate(formats strfmt.Registry) error
}

// BindAndValidateBody binds the JSON request body to v and runs its
// swagger validations, converting any validation failure into a public
// HTTPValidationError.
func BindAndValidateBody(c echo.Context, v Validatable) error {
	binder, ok := c.Echo().Binder.(*echo.DefaultBinder)
	if !ok {
		return errors.New("unsupported echo binder")
	}

	if err := binder.BindBody(c, v); err != nil {
		return err
	}

	return validatePayload(c, v)
}

// ValidateAndReturn validates the response payload and sends it as JSON
// with the given status code.
func ValidateAndReturn(c echo.Context, code int, v Validatable) error {
	if err := validatePayload(c, v); err != nil {
		return err
	}

	return c.JSON(code, v)
}

func validatePayload(c echo.Context, v Validatable) error {
	if err := v.Validate(strfmt.Default); err != nil {
		valErrs := formatValidationErrors(err)

		LogFromEchoContext(c).Debug().Errs("validation_errors", errsToErrSlice(valErrs)).Msg("Payload validation failed")

		return httperrors.NewHTTPValidationError(
			http.StatusBadRequest,
			httperrors.HTTPErrorTypeGeneric,
			http.StatusText(http.StatusBadRequest),
			valErrs,
		)
	}

	return nil
}

func formatValidationErrors(err error) []*types.HTTPValidationErrorDetail {
	switch e := err.(type) {
	case *openapierrors.CompositeError:
		valErrs := make([]*types.HTTPValidationErrorDetail, 0, len(e.Errors))
		for _, innerErr := range e.Errors {
			valErrs = append(valErrs, formatValidationErrors(innerErr)...)
		}

		return valErrs
	case *openapierrors.Validation:
		return []*types.HTTPValidationErrorDetail{
			{
				Key:   swag.String(e.Name),
				In:    swag.String(e.In),
				Error: swag.String(e.Error()),
			},
		}
	default:
		return []*types.HTTPValidationErrorDetail{
			{
				Key:   swag.String("body"),
				In:    swag.String("body"),
				Error: swag.String(err.Error()),
			},
		}
	}
}

func errsToErrSlice(valErrs []*types.HTTPValidationErrorDetail) []error {
	errs := make([]error, 0, len(valErrs))
	for _, valErr := range valErrs {
		errs = append(errs, errors.New(*valErr.Error))
	}

	return errs
}
