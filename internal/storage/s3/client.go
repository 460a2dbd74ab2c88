package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"gallery-service/internal/config"
	"gallery-service/internal/storage"
	"gallery-service/pkg/logger"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const (
	emptyAWSSessionToken         = ""
	defaultS3Region              = "us-east-1"
	pathDelimiter                = "/"
	awsPublicURLFmt              = "https://%s.s3.%s.amazonaws.com"
	errFailedCreateAWSSessionFmt = "failed to create AWS session: %w"
	errFailedListBucketsFmt      = "failed to list buckets: %w"
	errFailedCreateBucketFmt     = "failed to create bucket: %w"
	errFailedHeadBucketFmt       = "failed to check bucket: %w"
	errFailedWaitBucketExistsFmt = "failed to wait for bucket to exist: %w"
	errFailedSetBucketPolicyFmt  = "failed to set bucket policy: %w"
	errFailedListObjectsFmt      = "failed to list objects: %w"
	errFailedPutObjectFmt        = "failed to upload object: %w"
	codeNotFound                 = "NotFound"
	codeForbidden                = "Forbidden"
	msgBucketOwnedByYou          = "Your previous request to create the named bucket succeeded and you already own it."
	msgBucketTaken               = "The requested bucket name is not available."
	logPolicyNotAppliedFmt       = "s3: bucket %s created without public policy: %s"
)

type Client struct {
	svc       s3iface.S3API
	region    string
	publicURL string
}

// NewClient builds an S3-compatible provider. Endpoint is optional for AWS
// and required for other S3-compatible services.
func NewClient(cfg *config.StorageConfig) (*Client, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			emptyAWSSessionToken,
		),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf(errFailedCreateAWSSessionFmt, err)
	}

	return NewWithAPI(s3.New(sess), cfg.Region, cfg.PublicURL), nil
}

// NewWithAPI wraps an existing S3 API implementation. An empty publicURL
// means virtual-hosted AWS URLs.
func NewWithAPI(svc s3iface.S3API, region, publicURL string) *Client {
	return &Client{
		svc:       svc,
		region:    region,
		publicURL: strings.TrimRight(publicURL, pathDelimiter),
	}
}

func (c *Client) ListBuckets(ctx context.Context) ([]storage.Bucket, error) {
	out, err := c.svc.ListBucketsWithContext(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf(errFailedListBucketsFmt, err)
	}

	buckets := make([]storage.Bucket, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		name := aws.StringValue(b.Name)
		bucket := storage.Bucket{ID: name, Name: name}
		if b.CreationDate != nil {
			created := aws.TimeValue(b.CreationDate)
			bucket.CreatedAt = &created
		}
		buckets = append(buckets, bucket)
	}

	return buckets, nil
}

// CreateBucket creates name and, with opts.Public, attaches a public-read
// policy. Providers that reject bucket policies (Supabase S3, AWS accounts
// with Block Public Access) still get the bucket; the returned Public flag
// reports whether the policy was applied.
func (c *Client) CreateBucket(ctx context.Context, name string, opts storage.CreateBucketOptions) (*storage.Bucket, error) {
	// us-east-1 answers 200 when re-creating an owned bucket.
	if err := c.ensureBucketAbsent(ctx, name); err != nil {
		return nil, err
	}

	input := &s3.CreateBucketInput{
		Bucket: aws.String(name),
	}

	if c.region != "" && c.region != defaultS3Region {
		input.CreateBucketConfiguration = &s3.CreateBucketConfiguration{
			LocationConstraint: aws.String(c.region),
		}
	}

	if _, err := c.svc.CreateBucketWithContext(ctx, input); err != nil {
		return nil, fmt.Errorf(errFailedCreateBucketFmt, err)
	}

	if err := c.svc.WaitUntilBucketExistsWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(name),
	}); err != nil {
		return nil, fmt.Errorf(errFailedWaitBucketExistsFmt, err)
	}

	public := false
	if opts.Public {
		_, err := c.svc.PutBucketPolicyWithContext(ctx, &s3.PutBucketPolicyInput{
			Bucket: aws.String(name),
			Policy: aws.String(storage.PublicReadPolicy(name)),
		})
		if err != nil {
			log.Printf(logPolicyNotAppliedFmt, name, logger.SanitizeLogMessage(fmt.Errorf(errFailedSetBucketPolicyFmt, err).Error()))
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

// ensureBucketAbsent turns an existing bucket into the same coded error a
// create would return, so callers see a conflict.
func (c *Client) ensureBucketAbsent(ctx context.Context, name string) error {
	_, err := c.svc.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(name),
	})
	if err == nil {
		return fmt.Errorf(errFailedCreateBucketFmt, awserr.New(s3.ErrCodeBucketAlreadyOwnedByYou, msgBucketOwnedByYou, nil))
	}

	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return fmt.Errorf(errFailedHeadBucketFmt, err)
	}
	switch aerr.Code() {
	case codeNotFound, s3.ErrCodeNoSuchBucket:
		return nil
	case codeForbidden:
		return fmt.Errorf(errFailedCreateBucketFmt, awserr.New(s3.ErrCodeBucketAlreadyExists, msgBucketTaken, nil))
	default:
		return fmt.Errorf(errFailedHeadBucketFmt, err)
	}
}

func (c *Client) ListObjects(ctx context.Context, bucket string, opts storage.ListOptions) ([]storage.Object, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(opts.Prefix),
		Delimiter: aws.String(pathDelimiter),
	}
	if opts.Limit > 0 {
		input.MaxKeys = aws.Int64(int64(opts.Limit))
	}

	resp, err := c.svc.ListObjectsV2WithContext(ctx, input)
	if err != nil {
		return nil, fmt.Errorf(errFailedListObjectsFmt, err)
	}

	objects := make([]storage.Object, 0, len(resp.CommonPrefixes)+len(resp.Contents))

	for _, p := range resp.CommonPrefixes {
		objects = append(objects, storage.Object{
			Key: aws.StringValue(p.Prefix),
		})
	}

	for _, obj := range resp.Contents {
		key := aws.StringValue(obj.Key)
		objects = append(objects, storage.Object{
			Name:         storage.ObjectName(opts.Prefix, key),
			Key:          key,
			Size:         aws.Int64Value(obj.Size),
			LastModified: aws.TimeValue(obj.LastModified),
		})
	}

	if opts.Limit > 0 && len(objects) > opts.Limit {
		objects = objects[:opts.Limit]
	}

	return objects, nil
}

func (c *Client) PublicURL(bucket, name string) string {
	if c.publicURL == "" {
		return storage.BuildObjectURL(fmt.Sprintf(awsPublicURLFmt, bucket, c.region), name)
	}
	return storage.BuildPublicURL(c.publicURL, bucket, name)
}

func (c *Client) Upload(ctx context.Context, bucket, path string, body io.ReadSeeker, size int64, opts storage.UploadOptions) error {
	contentType := opts.ContentType
	if contentType == "" {
		contentType = storage.DefaultContentType
	}

	_, err := c.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(path),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf(errFailedPutObjectFmt, err)
	}

	return nil
}
