// Package gateway forwards bucket and file operations to the storage provider
// and normalizes its failures.
package gateway

import (
	"context"
	"errors"
	"log"
	"time"

	"gallery-service/internal/storage"
	apperrors "gallery-service/pkg/errors"
	"gallery-service/pkg/logger"
	"gallery-service/pkg/validator"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName         = "gallery-service/gateway"
	opListBuckets      = "list_buckets"
	opCreateBucket     = "create_bucket"
	opListFiles        = "list_files"
	opUpload           = "upload"
	defaultBucketName  = "images"
	defaultListLimit   = 200
	msgUnexpectedError = "Unexpected error"
	msgReadUploadFile  = "failed to read uploaded file"
)

type Service struct {
	provider storage.Provider
	opts     Options
	observer Observer
	tracer   trace.Tracer
}

// NewService wraps provider. observer may be nil.
func NewService(provider storage.Provider, opts Options, observer Observer) *Service {
	if opts.DefaultBucket == "" {
		opts.DefaultBucket = defaultBucketName
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = defaultListLimit
	}

	return &Service{
		provider: provider,
		opts:     opts,
		observer: observer,
		tracer:   otel.Tracer(tracerName),
	}
}

// DefaultBucket returns the bucket used when a request names none.
func (s *Service) DefaultBucket() string {
	return s.opts.DefaultBucket
}

// ListBuckets returns every bucket in provider order.
func (s *Service) ListBuckets(ctx context.Context) (buckets []storage.Bucket, err error) {
	ctx, done := s.begin(ctx, opListBuckets)
	defer func() { done(0, err) }()

	buckets, err = s.provider.ListBuckets(ctx)
	if err != nil {
		return nil, providerError(err)
	}
	if buckets == nil {
		buckets = []storage.Bucket{}
	}

	return buckets, nil
}

// CreateBucket validates name and creates a public bucket. A taken name
// yields *BucketExistsError.
func (s *Service) CreateBucket(ctx context.Context, name string) (bucket *storage.Bucket, err error) {
	name = validator.TrimBucketName(name)
	if err := validator.BucketName(name); err != nil {
		return nil, err
	}

	ctx, done := s.begin(ctx, opCreateBucket, attribute.String("bucket", name))
	defer func() { done(0, err) }()

	bucket, err = s.provider.CreateBucket(ctx, name, storage.CreateBucketOptions{Public: true})
	if err != nil {
		if storage.IsConflict(err) {
			return nil, &BucketExistsError{Name: name, Err: err}
		}
		return nil, providerError(err)
	}

	return bucket, nil
}

// ListFiles returns the files at the root of bucket, or of the default bucket
// when bucket is empty. Folder markers are skipped.
func (s *Service) ListFiles(ctx context.Context, bucket string) (files []File, err error) {
	bucket = s.bucketOrDefault(bucket)

	ctx, done := s.begin(ctx, opListFiles, attribute.String("bucket", bucket))
	defer func() { done(0, err) }()

	objects, err := s.provider.ListObjects(ctx, bucket, storage.ListOptions{Limit: s.opts.ListLimit})
	if err != nil {
		return nil, providerError(err)
	}

	files = make([]File, 0, len(objects))
	for _, obj := range objects {
		if obj.Name == "" {
			continue
		}
		files = append(files, File{Name: obj.Name, URL: s.provider.PublicURL(bucket, obj.Name)})
	}

	return files, nil
}

// UploadFiles stores files one after another under their own names,
// overwriting existing objects. The first failure aborts the batch.
func (s *Service) UploadFiles(ctx context.Context, bucket string, files []UploadInput) error {
	bucket = s.bucketOrDefault(bucket)

	for _, file := range files {
		if err := s.uploadOne(ctx, bucket, file); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) uploadOne(ctx context.Context, bucket string, file UploadInput) (err error) {
	ctx, done := s.begin(ctx, opUpload,
		attribute.String("bucket", bucket),
		attribute.String("file", file.Name),
		attribute.Int64("size", file.Size),
	)
	var written int64
	defer func() { done(written, err) }()

	body, err := file.Open()
	if err != nil {
		return apperrors.InternalServer(msgReadUploadFile, err)
	}
	defer body.Close()

	contentType := file.ContentType
	if contentType == "" {
		contentType = storage.DefaultContentType
	}

	if err := s.provider.Upload(ctx, bucket, file.Name, body, file.Size, storage.UploadOptions{
		ContentType: contentType,
	}); err != nil {
		return providerError(err)
	}

	written = file.Size
	return nil
}

func (s *Service) bucketOrDefault(bucket string) string {
	if bucket == "" {
		return s.opts.DefaultBucket
	}
	return bucket
}

// begin opens a span and applies the per-call timeout. The returned func
// ends both and records the outcome.
func (s *Service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(int64, error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "gateway."+op, trace.WithAttributes(attrs...))

	cancel := context.CancelFunc(func() {})
	if s.opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
	}

	return ctx, func(bytes int64, err error) {
		cancel()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, logger.SanitizeLogMessage(err.Error()))
			if !errors.Is(err, apperrors.ErrValidation) && !errors.Is(err, apperrors.ErrConflict) {
				log.Printf("gateway: %s failed: %s", op, logger.SanitizeLogMessage(err.Error()))
			}
		}
		span.End()
		if s.observer != nil {
			s.observer.ObserveOp(op, bytes, err, time.Since(start))
		}
	}
}

// providerError keeps the provider's message for the caller.
func providerError(err error) error {
	msg := storage.Message(err)
	if msg == "" {
		msg = msgUnexpectedError
	}
	return apperrors.Provider(msg, err)
}
