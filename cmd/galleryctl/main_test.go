package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"gallery-service/internal/gallery"
	"gallery-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAPI struct {
	images []gallery.Image
}

func (s *stubAPI) ListBuckets(context.Context) ([]storage.Bucket, error) { return nil, nil }

func (s *stubAPI) CreateBucket(_ context.Context, name string) (*storage.Bucket, error) {
	return &storage.Bucket{ID: name, Name: name}, nil
}

func (s *stubAPI) ListFiles(context.Context, string) ([]gallery.Image, error) { return s.images, nil }

func (s *stubAPI) Upload(context.Context, string, gallery.SelectedFile) error { return nil }

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", contentType("a.png", nil))
	assert.Equal(t, "image/jpeg", contentType("photo.jpg", nil))

	gif := []byte("GIF89a\x01\x00\x01\x00")
	assert.Equal(t, "image/gif", contentType("noext", gif))
	assert.Equal(t, "text/plain; charset=utf-8", contentType("notes", []byte("hello")))
}

func TestParseBucketFlags(t *testing.T) {
	bucket, rest, err := parseBucketFlags("upload", []string{"-bucket", "photos", "a.png", "b.png"})
	require.NoError(t, err)
	assert.Equal(t, "photos", bucket)
	assert.Equal(t, []string{"a.png", "b.png"}, rest)

	_, _, err = parseBucketFlags("list", nil)
	assert.EqualError(t, err, "list requires -bucket")
}

func TestViewWrapsAndQuits(t *testing.T) {
	api := &stubAPI{images: []gallery.Image{{Name: "a", URL: "u/a"}, {Name: "b", URL: "u/b"}}}
	ctl := gallery.NewController(api, gallery.Options{})

	var out bytes.Buffer
	err := view(context.Background(), ctl, "photos", strings.NewReader("n\nn\np\nq\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"[1/2] a u/a",
		"[2/2] b u/b",
		"[1/2] a u/a",
		"[2/2] b u/b",
		"",
	}, "\n"), out.String())
}

func TestViewEmptyBucket(t *testing.T) {
	ctl := gallery.NewController(&stubAPI{}, gallery.Options{})

	var out bytes.Buffer
	require.NoError(t, view(context.Background(), ctl, "photos", strings.NewReader(""), &out))
	assert.Equal(t, "no images in \"photos\"\n", out.String())
}
