package handler

import (
	"errors"
	"net/http"

	"gallery-service/internal/gateway"
	"gallery-service/pkg/validator"

	"github.com/labstack/echo/v4"
)

type BucketHandler struct {
	buckets BucketService
}

func NewBucketHandler(buckets BucketService) *BucketHandler {
	return &BucketHandler{buckets: buckets}
}

// ListBuckets responds with every bucket the provider reports.
func (h *BucketHandler) ListBuckets(c echo.Context) error {
	buckets, err := h.buckets.ListBuckets(c.Request().Context())
	if err != nil {
		return respondMappedError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{jsonKeyBuckets: buckets})
}

// CreateBucket creates a public bucket from {"name": "..."}.
func (h *BucketHandler) CreateBucket(c echo.Context) error {
	body := bindLooseJSON(c)
	name := validator.TrimBucketName(stringField(body, jsonKeyName))

	bucket, err := h.buckets.CreateBucket(c.Request().Context(), name)
	if err != nil {
		var exists *gateway.BucketExistsError
		if errors.As(err, &exists) {
			return c.JSON(http.StatusConflict, map[string]any{
				jsonKeyError:  msgBucketAlreadyExists,
				jsonKeyBucket: map[string]string{jsonKeyName: exists.Name},
			})
		}
		return respondMappedError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]any{jsonKeyBucket: bucket})
}
