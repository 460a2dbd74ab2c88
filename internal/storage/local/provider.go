// Package local stores buckets as directories on an afero filesystem. It backs
// development setups without an object store and is served under /public.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"gallery-service/internal/storage"

	"github.com/spf13/afero"
)

const (
	// PublicPrefix is the route that serves stored files.
	PublicPrefix = "/public"

	rootDir                 = "/"
	dirPerm                 = 0o755
	filePerm                = 0o644
	codeBucketAlreadyExists = "BucketAlreadyExists"
	codeNoSuchBucket        = "NoSuchBucket"
	codeInvalidKey          = "InvalidKey"
	msgBucketAlreadyExists  = "The resource already exists"
	msgNoSuchBucket         = "The specified bucket does not exist"
	msgInvalidKey           = "Object key must be a relative path inside the bucket"
	errFailedReadRootFmt    = "failed to read storage root: %w"
	errFailedStatBucketFmt  = "failed to check bucket: %w"
	errFailedMakeBucketFmt  = "failed to create bucket: %w"
	errFailedReadBucketFmt  = "failed to list objects: %w"
	errFailedWriteObjectFmt = "failed to write object: %w"
)

// Error carries a provider style code so gateway conflict detection works the
// same as against a remote store.
type Error struct {
	code    string
	message string
}

func (e *Error) Error() string   { return e.code + ": " + e.message }
func (e *Error) Code() string    { return e.code }
func (e *Error) Message() string { return e.message }

type Provider struct {
	fs        afero.Fs
	publicURL string
}

// NewProvider roots the store at dir on the OS filesystem.
func NewProvider(dir, publicURL string) (*Provider, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf(errFailedReadRootFmt, err)
	}
	return NewWithFs(afero.NewBasePathFs(osFs, dir), publicURL), nil
}

// NewWithFs uses fs as the storage root.
func NewWithFs(fs afero.Fs, publicURL string) *Provider {
	if publicURL == "" {
		publicURL = PublicPrefix
	}
	return &Provider{fs: fs, publicURL: strings.TrimRight(publicURL, "/")}
}

// Fs exposes the storage root for read-only serving.
func (p *Provider) Fs() afero.Fs {
	return afero.NewReadOnlyFs(p.fs)
}

func (p *Provider) ListBuckets(ctx context.Context) ([]storage.Bucket, error) {
	entries, err := afero.ReadDir(p.fs, rootDir)
	if err != nil {
		return nil, fmt.Errorf(errFailedReadRootFmt, err)
	}

	buckets := make([]storage.Bucket, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		created := entry.ModTime()
		buckets = append(buckets, storage.Bucket{
			ID:        entry.Name(),
			Name:      entry.Name(),
			Public:    storage.BoolPtr(true),
			CreatedAt: &created,
		})
	}

	return buckets, nil
}

func (p *Provider) CreateBucket(ctx context.Context, name string, opts storage.CreateBucketOptions) (*storage.Bucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := bucketDir(name)
	exists, err := afero.DirExists(p.fs, dir)
	if err != nil {
		return nil, fmt.Errorf(errFailedStatBucketFmt, err)
	}
	if exists {
		return nil, &Error{code: codeBucketAlreadyExists, message: msgBucketAlreadyExists}
	}

	if err := p.fs.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf(errFailedMakeBucketFmt, err)
	}

	bucket := &storage.Bucket{ID: name, Name: name, Public: storage.BoolPtr(opts.Public)}
	if info, err := p.fs.Stat(dir); err == nil {
		created := info.ModTime()
		bucket.CreatedAt = &created
	}

	return bucket, nil
}

func (p *Provider) ListObjects(ctx context.Context, bucket string, opts storage.ListOptions) ([]storage.Object, error) {
	if err := p.requireBucket(bucket); err != nil {
		return nil, err
	}

	dir := path.Join(bucketDir(bucket), opts.Prefix)
	entries, err := afero.ReadDir(p.fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []storage.Object{}, nil
		}
		return nil, fmt.Errorf(errFailedReadBucketFmt, err)
	}

	objects := make([]storage.Object, 0, len(entries))
	for _, entry := range entries {
		if opts.Limit > 0 && len(objects) >= opts.Limit {
			break
		}

		key := opts.Prefix + entry.Name()
		obj := storage.Object{Key: key, LastModified: entry.ModTime()}
		if entry.IsDir() {
			obj.Key += "/"
		} else {
			obj.Name = entry.Name()
			obj.Size = entry.Size()
		}
		objects = append(objects, obj)
	}

	return objects, nil
}

func (p *Provider) PublicURL(bucket, name string) string {
	return storage.BuildPublicURL(p.publicURL, bucket, name)
}

func (p *Provider) Upload(ctx context.Context, bucket, key string, body io.ReadSeeker, size int64, opts storage.UploadOptions) error {
	if err := p.requireBucket(bucket); err != nil {
		return err
	}

	target, err := objectPath(bucket, key)
	if err != nil {
		return err
	}

	if err := afero.WriteReader(p.fs, target, body); err != nil {
		return fmt.Errorf(errFailedWriteObjectFmt, err)
	}

	return ctx.Err()
}

func (p *Provider) requireBucket(bucket string) error {
	exists, err := afero.DirExists(p.fs, bucketDir(bucket))
	if err != nil {
		return fmt.Errorf(errFailedStatBucketFmt, err)
	}
	if !exists {
		return &Error{code: codeNoSuchBucket, message: msgNoSuchBucket}
	}
	return nil
}

// Paths are rooted so they match what http.FileServer asks for.
func bucketDir(bucket string) string {
	return path.Join(rootDir, bucket)
}

// objectPath keeps key inside the bucket directory.
func objectPath(bucket, key string) (string, error) {
	cleaned := path.Clean(rootDir + key)
	if key == "" || cleaned == rootDir || strings.HasSuffix(key, "/") {
		return "", &Error{code: codeInvalidKey, message: msgInvalidKey}
	}
	return path.Join(bucketDir(bucket), cleaned), nil
}
