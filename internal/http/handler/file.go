package handler

import (
	"io"
	"mime/multipart"
	"net/http"

	"gallery-service/internal/gateway"

	"github.com/labstack/echo/v4"
)

type FileHandler struct {
	files FileService
}

func NewFileHandler(files FileService) *FileHandler {
	return &FileHandler{files: files}
}

// ListFiles responds with {name, url} for every file at the bucket root.
func (h *FileHandler) ListFiles(c echo.Context) error {
	files, err := h.files.ListFiles(c.Request().Context(), c.QueryParam(queryBucket))
	if err != nil {
		return respondMappedError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{jsonKeyFiles: files})
}

// Upload stores every "file" part of a multipart form in the "bucket" field's
// bucket. Processing stops at the first failing file.
func (h *FileHandler) Upload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return respondMappedError(c, err)
	}

	var bucket string
	if values := form.Value[formFieldBucket]; len(values) > 0 {
		bucket = values[0]
	}

	parts := form.File[formFieldFile]
	inputs := make([]gateway.UploadInput, 0, len(parts))
	for _, fh := range parts {
		inputs = append(inputs, uploadInput(fh))
	}

	if err := h.files.UploadFiles(c.Request().Context(), bucket, inputs); err != nil {
		return respondMappedError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]bool{jsonKeyOK: true})
}

func uploadInput(fh *multipart.FileHeader) gateway.UploadInput {
	return gateway.UploadInput{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Open: func() (io.ReadSeekCloser, error) {
			return fh.Open()
		},
	}
}
