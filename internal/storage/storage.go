// Package storage defines the seam between the gallery gateway and the
// object-storage provider that owns every bucket and file.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultContentType is used when an upload does not declare one.
	DefaultContentType  = "application/octet-stream"
	pathSeparator       = "/"
	publicReadPolicyFmt = `{"Version":"2012-10-17","Statement":[{"Sid":"PublicRead","Effect":"Allow","Principal":"*","Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`
)

// Bucket describes a provider bucket.
type Bucket struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Public    *bool      `json:"public,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Object is one entry of a bucket listing. Name is empty for entries that do
// not denote a file (folder markers, common prefixes).
type Object struct {
	Name         string
	Key          string
	Size         int64
	LastModified time.Time
}

// CreateBucketOptions controls bucket provisioning.
type CreateBucketOptions struct {
	Public bool
}

// ListOptions bounds a listing at the bucket root.
type ListOptions struct {
	Prefix string
	Limit  int
}

// UploadOptions controls how content is written. Uploads always replace an
// existing object at the same path.
type UploadOptions struct {
	ContentType string
}

// Provider is the external object store. Implementations must be safe for
// concurrent use.
type Provider interface {
	ListBuckets(ctx context.Context) ([]Bucket, error)
	CreateBucket(ctx context.Context, name string, opts CreateBucketOptions) (*Bucket, error)
	ListObjects(ctx context.Context, bucket string, opts ListOptions) ([]Object, error)
	PublicURL(bucket, name string) string
	Upload(ctx context.Context, bucket, path string, body io.ReadSeeker, size int64, opts UploadOptions) error
}

// BuildPublicURL joins a public base URL, a bucket and an object key.
func BuildPublicURL(base, bucket, key string) string {
	return BuildObjectURL(strings.TrimRight(base, pathSeparator)+pathSeparator+url.PathEscape(bucket), key)
}

// BuildObjectURL appends an object key to a bucket-level base URL, escaping
// each key segment.
func BuildObjectURL(base, key string) string {
	segments := strings.Split(key, pathSeparator)
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}

	return strings.TrimRight(base, pathSeparator) + pathSeparator + strings.Join(segments, pathSeparator)
}

// ObjectName returns the file name for a key listed under prefix, or "" when
// the key is a folder marker.
func ObjectName(prefix, key string) string {
	name := strings.TrimPrefix(key, prefix)
	if name == "" || strings.HasSuffix(name, pathSeparator) {
		return ""
	}
	return name
}

// PublicReadPolicy is an S3 bucket policy granting anonymous reads of every
// object in bucket.
func PublicReadPolicy(bucket string) string {
	return fmt.Sprintf(publicReadPolicyFmt, bucket)
}

// BoolPtr is a convenience for optional flags in Bucket.
func BoolPtr(b bool) *bool {
	return &b
}
