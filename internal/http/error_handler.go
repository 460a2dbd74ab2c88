package http

import (
	"errors"
	"fmt"
	"net/http"

	"gallery-service/internal/http/handler"
	"gallery-service/internal/http/middleware"
	"gallery-service/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	jsonKeyError     = "error"
	jsonKeyRequestID = "request_id"
	unknownRequestID = "unknown"
)

// CustomHTTPErrorHandler handles all errors returned by handlers and middleware.
// Echo errors keep their status; everything else goes through the handler
// error mapping so internal details never reach the client.
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code    int
		message string
	)

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		message = fmt.Sprintf("%v", httpErr.Message)
		if httpErr.Internal != nil {
			err = fmt.Errorf("%w: %v", err, httpErr.Internal)
		}
	} else {
		code, message = handler.MapToPublicError(err)
	}

	requestID := middleware.GetRequestID(c)
	if requestID == "" {
		requestID = unknownRequestID
	}

	if code >= 500 {
		c.Logger().Errorf("internal_server_error request_id=%s status=%d error=%s",
			requestID, code, logger.SanitizeLogMessage(err.Error()))
	} else {
		c.Logger().Warnf("client_error request_id=%s status=%d error=%s",
			requestID, code, logger.SanitizeLogMessage(err.Error()))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{
			jsonKeyError:     message,
			jsonKeyRequestID: requestID,
		})
	}
	if err != nil {
		c.Logger().Error(err)
	}
}
