package handler

import (
	"errors"
	"net/http"

	apperrors "gallery-service/pkg/errors"
	"gallery-service/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MapToPublicError maps gateway errors to a status and the message shown to
// the caller. Validation, not-found and provider messages pass through;
// anything else is reported as an unexpected error.
func MapToPublicError(err error) (int, string) {
	msg, hasMsg := apperrors.PublicMessage(err)

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		if !hasMsg {
			msg = http.StatusText(http.StatusBadRequest)
		}
		return http.StatusBadRequest, msg
	case errors.Is(err, apperrors.ErrNotFound):
		if !hasMsg {
			msg = http.StatusText(http.StatusNotFound)
		}
		return http.StatusNotFound, msg
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, msgBucketAlreadyExists
	case errors.Is(err, apperrors.ErrProvider) && hasMsg:
		return http.StatusInternalServerError, msg
	default:
		// Never expose internal errors to clients
		return http.StatusInternalServerError, msgUnexpectedError
	}
}

func logError(c echo.Context, status int, err error) {
	c.Logger().Errorf("status=%d request_id=%s error=%s",
		status,
		c.Response().Header().Get(echo.HeaderXRequestID),
		logger.SanitizeLogMessage(err.Error()))
}
