package gateway

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"gallery-service/internal/storage"
)

type upload struct {
	bucket      string
	path        string
	data        []byte
	contentType string
}

// fakeProvider is an in-memory storage.Provider.
type fakeProvider struct {
	mu sync.Mutex

	buckets     []storage.Bucket
	objects     map[string][]storage.Object
	listErr     error
	createErr   error
	objectsErr  error
	uploadErrAt map[string]error

	createCalls int
	createdWith []storage.CreateBucketOptions
	listOpts    storage.ListOptions
	uploads     []upload
	deadlines   []bool
}

func (f *fakeProvider) ListBuckets(ctx context.Context) ([]storage.Bucket, error) {
	f.record(ctx)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.buckets, nil
}

func (f *fakeProvider) CreateBucket(ctx context.Context, name string, opts storage.CreateBucketOptions) (*storage.Bucket, error) {
	f.record(ctx)
	f.mu.Lock()
	f.createCalls++
	f.createdWith = append(f.createdWith, opts)
	f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &storage.Bucket{ID: name, Name: name, Public: storage.BoolPtr(opts.Public)}, nil
}

func (f *fakeProvider) ListObjects(ctx context.Context, bucket string, opts storage.ListOptions) ([]storage.Object, error) {
	f.record(ctx)
	f.listOpts = opts
	if f.objectsErr != nil {
		return nil, f.objectsErr
	}
	return f.objects[bucket], nil
}

func (f *fakeProvider) PublicURL(bucket, name string) string {
	return storage.BuildPublicURL("https://cdn.example.com/storage/v1/object/public", bucket, name)
}

func (f *fakeProvider) Upload(ctx context.Context, bucket, path string, body io.ReadSeeker, size int64, opts storage.UploadOptions) error {
	f.record(ctx)
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if err := f.uploadErrAt[path]; err != nil {
		return err
	}
	f.mu.Lock()
	f.uploads = append(f.uploads, upload{bucket: bucket, path: path, data: data, contentType: opts.ContentType})
	f.mu.Unlock()
	return nil
}

func (f *fakeProvider) record(ctx context.Context) {
	_, ok := ctx.Deadline()
	f.mu.Lock()
	f.deadlines = append(f.deadlines, ok)
	f.mu.Unlock()
}

// codedErr mimics an SDK error with a machine-readable code.
type codedErr struct {
	code, msg string
}

func (e codedErr) Error() string   { return e.code + ": " + e.msg }
func (e codedErr) Code() string    { return e.code }
func (e codedErr) Message() string { return e.msg }

type nopCloser struct {
	io.ReadSeeker
}

func (nopCloser) Close() error { return nil }

func memFile(name, contentType string, data []byte, opened *[]string) UploadInput {
	return UploadInput{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadSeekCloser, error) {
			if opened != nil {
				*opened = append(*opened, name)
			}
			return nopCloser{bytes.NewReader(data)}, nil
		},
	}
}

type observed struct {
	op    string
	bytes int64
	err   error
}

type fakeObserver struct {
	ops []observed
}

func (o *fakeObserver) ObserveOp(op string, bytes int64, err error, _ time.Duration) {
	o.ops = append(o.ops, observed{op: op, bytes: bytes, err: err})
}
