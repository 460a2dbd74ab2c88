package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"

	"gallery-service/internal/config"
	"gallery-service/internal/storage"
	"gallery-service/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	schemeHTTPS              = "https"
	pathDelimiter            = "/"
	errInvalidEndpointFmt    = "invalid MinIO endpoint %q: %w"
	errFailedCreateClientFmt = "failed to create MinIO client: %w"
	errFailedListBucketsFmt  = "failed to list buckets: %w"
	errFailedMakeBucketFmt   = "failed to create bucket: %w"
	errFailedSetPolicyFmt    = "failed to set bucket policy: %w"
	errFailedListObjectsFmt  = "failed to list objects: %w"
	errFailedPutObjectFmt    = "failed to upload object: %w"
	logPolicyNotAppliedFmt   = "minio: bucket %s created without public policy: %s"
)

var errMissingHost = errors.New("missing host")

// api is the subset of *minio.Client the provider uses.
type api interface {
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketPolicy(ctx context.Context, bucketName, policy string) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Client struct {
	api       api
	region    string
	publicURL string
}

func NewClient(cfg *config.StorageConfig) (*Client, error) {
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil || endpoint.Host == "" {
		if err == nil {
			err = errMissingHost
		}
		return nil, fmt.Errorf(errInvalidEndpointFmt, cfg.Endpoint, err)
	}

	mc, err := minio.New(endpoint.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: endpoint.Scheme == schemeHTTPS,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf(errFailedCreateClientFmt, err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = endpoint.Scheme + "://" + endpoint.Host
	}

	return newWithAPI(mc, cfg.Region, publicURL), nil
}

func newWithAPI(a api, region, publicURL string) *Client {
	return &Client{
		api:       a,
		region:    region,
		publicURL: strings.TrimRight(publicURL, pathDelimiter),
	}
}

func (c *Client) ListBuckets(ctx context.Context) ([]storage.Bucket, error) {
	infos, err := c.api.ListBuckets(ctx)
	if err != nil {
		return nil, fmt.Errorf(errFailedListBucketsFmt, wrapError(err))
	}

	buckets := make([]storage.Bucket, 0, len(infos))
	for _, info := range infos {
		bucket := storage.Bucket{ID: info.Name, Name: info.Name}
		if !info.CreationDate.IsZero() {
			created := info.CreationDate
			bucket.CreatedAt = &created
		}
		buckets = append(buckets, bucket)
	}

	return buckets, nil
}

func (c *Client) CreateBucket(ctx context.Context, name string, opts storage.CreateBucketOptions) (*storage.Bucket, error) {
	if err := c.api.MakeBucket(ctx, name, minio.MakeBucketOptions{Region: c.region}); err != nil {
		return nil, fmt.Errorf(errFailedMakeBucketFmt, wrapError(err))
	}

	// A rejected policy leaves a private bucket rather than failing the create.
	public := false
	if opts.Public {
		if err := c.api.SetBucketPolicy(ctx, name, storage.PublicReadPolicy(name)); err != nil {
			log.Printf(logPolicyNotAppliedFmt, name, logger.SanitizeLogMessage(fmt.Errorf(errFailedSetPolicyFmt, wrapError(err)).Error()))
		} else {
			public = true
		}
	}

	return &storage.Bucket{
		ID:     name,
		Name:   name,
		Public: storage.BoolPtr(public),
	}, nil
}

func (c *Client) ListObjects(ctx context.Context, bucket string, opts storage.ListOptions) ([]storage.Object, error) {
	// Stop the listing goroutine once enough entries were read.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var objects []storage.Object
	for info := range c.api.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    opts.Prefix,
		Recursive: false,
		MaxKeys:   opts.Limit,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf(errFailedListObjectsFmt, wrapError(info.Err))
		}

		objects = append(objects, storage.Object{
			Name:         storage.ObjectName(opts.Prefix, info.Key),
			Key:          info.Key,
			Size:         info.Size,
			LastModified: info.LastModified,
		})

		if opts.Limit > 0 && len(objects) >= opts.Limit {
			break
		}
	}

	return objects, nil
}

func (c *Client) PublicURL(bucket, name string) string {
	return storage.BuildPublicURL(c.publicURL, bucket, name)
}

func (c *Client) Upload(ctx context.Context, bucket, path string, body io.ReadSeeker, size int64, opts storage.UploadOptions) error {
	contentType := opts.ContentType
	if contentType == "" {
		contentType = storage.DefaultContentType
	}

	if _, err := c.api.PutObject(ctx, bucket, path, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return fmt.Errorf(errFailedPutObjectFmt, wrapError(err))
	}

	return nil
}
