package handler

import (
	"github.com/labstack/echo/v4"
)

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{jsonKeyError: message})
}

// respondMappedError writes err through MapToPublicError and logs anything
// the caller does not get to see.
func respondMappedError(c echo.Context, err error) error {
	status, msg := MapToPublicError(err)
	if status >= 500 {
		logError(c, status, err)
	}
	return respondError(c, status, msg)
}
