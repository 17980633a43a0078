package http

import (
	"errors"
	"net/http"

	"fieldops/internal/core/application/assignment"
	"fieldops/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

func isValidationError(err error) bool {
	return errors.Is(err, errs.ErrValueIsInvalid) ||
		errors.Is(err, errs.ErrValueIsOutOfRange) ||
		errors.Is(err, errs.ErrValueIsRequired)
}

// fail writes the error response for err. Internal errors are logged and
// reported with the generic message only.
func (s *Server) fail(ctx echo.Context, err error, message string) error {
	switch {
	case errors.Is(err, assignment.ErrStaleOffer):
		return errorJSON(ctx, http.StatusConflict, assignment.ErrStaleOffer.Error())
	case errors.Is(err, errs.ErrObjectNotFound):
		return errorJSON(ctx, http.StatusNotFound, "Not found")
	case isValidationError(err):
		return errorJSON(ctx, http.StatusBadRequest, "Invalid request: "+err.Error())
	default:
		s.logger.ErrorContext(ctx.Request().Context(), message,
			"method", ctx.Request().Method, "path", ctx.Path(), "error", err)
		return errorJSON(ctx, http.StatusInternalServerError, message)
	}
}

func errorJSON(ctx echo.Context, code int, message string) error {
	return ctx.JSON(code, Error{
		Code:    code,
		Message: message,
	})
}
