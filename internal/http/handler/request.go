package handler

import (
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"
)

const maxJSONBodyBytes int64 = 1 << 20

// bindLooseJSON decodes a JSON object from the request body. A missing or
// malformed body yields an empty object rather than an error.
func bindLooseJSON(c echo.Context) map[string]any {
	body := io.LimitReader(c.Request().Body, maxJSONBodyBytes)

	var obj map[string]any
	if err := json.NewDecoder(body).Decode(&obj); err != nil || obj == nil {
		return map[string]any{}
	}
	return obj
}

// stringField returns obj[key] when it is a string and "" otherwise.
func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
