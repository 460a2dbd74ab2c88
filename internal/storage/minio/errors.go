package minio

import "github.com/minio/minio-go/v7"

// providerError exposes a MinIO error response through storage.CodedError.
type providerError struct {
	resp minio.ErrorResponse
	err  error
}

func wrapError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "" {
		return err
	}
	return &providerError{resp: resp, err: err}
}

func (e *providerError) Error() string   { return e.err.Error() }
func (e *providerError) Unwrap() error   { return e.err }
func (e *providerError) Code() string    { return e.resp.Code }
func (e *providerError) Message() string { return e.resp.Message }
