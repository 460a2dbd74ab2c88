package handler

import (
	"context"

	"gallery-service/internal/gateway"
	"gallery-service/internal/storage"
)

// Consumer-side interfaces defined by handlers.
// *gateway.Service implements both.

type BucketService interface {
	ListBuckets(ctx context.Context) ([]storage.Bucket, error)
	CreateBucket(ctx context.Context, name string) (*storage.Bucket, error)
}

type FileService interface {
	ListFiles(ctx context.Context, bucket string) ([]gateway.File, error)
	UploadFiles(ctx context.Context, bucket string, files []gateway.UploadInput) error
}
