package gateway

import (
	"fmt"
	"io"
	"time"

	apperrors "gallery-service/pkg/errors"
)

// Options tunes gateway behavior.
type Options struct {
	// DefaultBucket is used when a request names no bucket.
	DefaultBucket string
	// ListLimit caps the number of root entries read per listing.
	ListLimit int
	// Timeout bounds each provider call. Zero disables it.
	Timeout time.Duration
}

// Observer records per-operation outcomes. *metrics.Metrics implements it.
type Observer interface {
	ObserveOp(op string, bytes int64, err error, dur time.Duration)
}

// File is a stored file with its public URL.
type File struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// UploadInput is one file of an upload batch. Open is called only when the
// file's turn comes, so files after a failure are never read.
type UploadInput struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadSeekCloser, error)
}

// BucketExistsError reports that a bucket name is already taken.
type BucketExistsError struct {
	Name string
	Err  error
}

func (e *BucketExistsError) Error() string {
	return fmt.Sprintf("bucket %q already exists: %v", e.Name, e.Err)
}

func (e *BucketExistsError) Unwrap() []error {
	return []error{apperrors.ErrConflict, e.Err}
}
