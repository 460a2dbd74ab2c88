package gallery

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"gallery-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu sync.Mutex

	buckets    []storage.Bucket
	listErr    error
	createErr  error
	created    []string
	images     map[string][]Image
	filesErr   error
	uploadErrs map[string]error
	uploaded   []string
	listCalls  int
}

func (f *fakeAPI) ListBuckets(ctx context.Context) ([]storage.Bucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.buckets, f.listErr
}

func (f *fakeAPI) CreateBucket(ctx context.Context, name string) (*storage.Bucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, name)
	if f.createErr != nil {
		return nil, f.createErr
	}
	b := storage.Bucket{ID: name, Name: name}
	f.buckets = append(f.buckets, b)
	return &b, nil
}

func (f *fakeAPI) ListFiles(ctx context.Context, bucket string) ([]Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.filesErr != nil {
		return nil, f.filesErr
	}
	return f.images[bucket], nil
}

func (f *fakeAPI) Upload(ctx context.Context, bucket string, file SelectedFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.uploadErrs[file.Name]; err != nil {
		return err
	}
	f.uploaded = append(f.uploaded, bucket+"/"+file.Name)
	if f.images == nil {
		f.images = map[string][]Image{}
	}
	f.images[bucket] = append(f.images[bucket], Image{Name: file.Name, URL: "https://cdn/" + bucket + "/" + file.Name})
	return nil
}

func png(name string) SelectedFile {
	return SelectedFile{Name: name, ContentType: "image/png", Data: []byte(name)}
}

func threeImages() []Image {
	return []Image{{Name: "a"}, {Name: "b"}, {Name: "c"}}
}

func TestMountLoadsBucketsAndSubscribesKeys(t *testing.T) {
	api := &fakeAPI{buckets: []storage.Bucket{{ID: "photos", Name: "photos"}}}
	c := NewController(api, Options{})
	keys := NewKeyBus()

	c.Mount(context.Background(), keys)
	assert.Equal(t, 1, keys.Len())
	assert.Equal(t, []storage.Bucket{{ID: "photos", Name: "photos"}}, c.Snapshot().Buckets)

	c.Unmount()
	assert.Equal(t, 0, keys.Len())
}

func TestLoadBucketsFailureKeepsList(t *testing.T) {
	api := &fakeAPI{buckets: []storage.Bucket{{ID: "a", Name: "a"}}}
	c := NewController(api, Options{})
	require.NoError(t, c.LoadBuckets(context.Background()))

	api.listErr = errors.New("offline")
	require.Error(t, c.LoadBuckets(context.Background()))

	snap := c.Snapshot()
	assert.Len(t, snap.Buckets, 1)
	assert.Equal(t, Toast{Message: "Failed to load buckets", OK: false, Show: true}, snap.Toast)
}

func TestCreateBucket(t *testing.T) {
	t.Run("empty name", func(t *testing.T) {
		api := &fakeAPI{}
		c := NewController(api, Options{})

		err := c.CreateBucket(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrBucketNameRequired)
		assert.Empty(t, api.created)
		assert.Equal(t, "Please enter a bucket name", c.Snapshot().Toast.Message)
	})

	t.Run("success selects and reloads", func(t *testing.T) {
		api := &fakeAPI{}
		c := NewController(api, Options{})

		require.NoError(t, c.CreateBucket(context.Background(), " photos "))
		snap := c.Snapshot()
		assert.Equal(t, []string{"photos"}, api.created)
		assert.Equal(t, "photos", snap.SelectedBucket)
		assert.Equal(t, `Bucket "photos" created successfully!`, snap.CreateStatus)
		assert.True(t, snap.Toast.OK)
		assert.Equal(t, 1, api.listCalls)
		require.Len(t, snap.Buckets, 1)
	})

	t.Run("conflict selects existing bucket", func(t *testing.T) {
		api := &fakeAPI{createErr: &APIError{StatusCode: http.StatusConflict, Message: "Bucket already exists"}}
		c := NewController(api, Options{})

		err := c.CreateBucket(context.Background(), "photos")
		assert.ErrorIs(t, err, ErrBucketExists)
		snap := c.Snapshot()
		assert.Equal(t, "photos", snap.SelectedBucket)
		assert.Equal(t, `Bucket "photos" already exists`, snap.CreateStatus)
		assert.Equal(t, Toast{Message: `Bucket "photos" already exists`, OK: false, Show: true}, snap.Toast)
		assert.Zero(t, api.listCalls)
	})

	t.Run("other failure", func(t *testing.T) {
		api := &fakeAPI{createErr: &APIError{StatusCode: http.StatusBadRequest, Message: "Bucket name must be 3-63 characters"}}
		c := NewController(api, Options{})

		err := c.CreateBucket(context.Background(), "ab")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrBucketExists)
		snap := c.Snapshot()
		assert.Equal(t, "", snap.SelectedBucket)
		assert.Equal(t, "Error: Bucket name must be 3-63 characters", snap.CreateStatus)
		assert.False(t, snap.Toast.OK)
	})
}

func TestSelectFiles(t *testing.T) {
	c := NewController(&fakeAPI{}, Options{})

	n, err := c.SelectFiles([]SelectedFile{png("a.png"), {Name: "notes.txt", ContentType: "text/plain"}, png("b.png")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	snap := c.Snapshot()
	assert.Len(t, snap.SelectedFiles, 2)
	assert.Equal(t, Toast{Message: "Only 2 of 3 files are images", OK: false, Show: true}, snap.Toast)

	n, err = c.SelectFiles([]SelectedFile{{Name: "notes.txt", ContentType: "text/plain"}})
	assert.ErrorIs(t, err, ErrNoImages)
	assert.Zero(t, n)
	assert.Empty(t, c.Snapshot().SelectedFiles)
	assert.Equal(t, "Please select image files only", c.Snapshot().Toast.Message)
}

func TestUploadPreconditions(t *testing.T) {
	api := &fakeAPI{}
	c := NewController(api, Options{})

	_, err := c.Upload(context.Background())
	assert.ErrorIs(t, err, ErrNoBucketSelected)

	c.SelectBucket("photos")
	_, err = c.Upload(context.Background())
	assert.ErrorIs(t, err, ErrNoFilesSelected)
	assert.Empty(t, api.uploaded)
}

func TestUploadTalliesEachFile(t *testing.T) {
	api := &fakeAPI{uploadErrs: map[string]error{"bad.png": &APIError{StatusCode: 500, Message: "boom"}}}
	c := NewController(api, Options{})
	c.SelectBucket("photos")
	_, err := c.SelectFiles([]SelectedFile{png("bad.png"), png("good.png")})
	require.NoError(t, err)

	result, err := c.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, UploadResult{Succeeded: 1, Failed: 1}, result)
	assert.Equal(t, []string{"photos/good.png"}, api.uploaded)

	snap := c.Snapshot()
	assert.Empty(t, snap.SelectedFiles)
	assert.Equal(t, `Uploaded 1 file(s) to "photos".`, snap.UploadStatus)
	assert.Equal(t, []Image{{Name: "good.png", URL: "https://cdn/photos/good.png"}}, snap.Images)
	assert.Equal(t, Toast{Message: "1 file(s) failed to upload", OK: false, Show: true}, snap.Toast)
}

func TestUploadAllFailedKeepsSelection(t *testing.T) {
	api := &fakeAPI{uploadErrs: map[string]error{"a.png": errors.New("x"), "b.png": errors.New("y")}}
	c := NewController(api, Options{})
	c.SelectBucket("photos")
	_, err := c.SelectFiles([]SelectedFile{png("a.png"), png("b.png")})
	require.NoError(t, err)

	result, err := c.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, UploadResult{Succeeded: 0, Failed: 2}, result)
	assert.Len(t, c.Snapshot().SelectedFiles, 2)
	assert.Equal(t, "2 file(s) failed to upload", c.Snapshot().Toast.Message)
}

func TestLoadGallery(t *testing.T) {
	api := &fakeAPI{images: map[string][]Image{"photos": threeImages()}}
	c := NewController(api, Options{})

	assert.ErrorIs(t, c.LoadGallery(context.Background()), ErrNoBucketSelected)

	c.SelectBucket("photos")
	require.NoError(t, c.LoadGallery(context.Background()))
	snap := c.Snapshot()
	assert.Len(t, snap.Images, 3)
	assert.Equal(t, `Loaded 3 image(s) from "photos"`, snap.Toast.Message)

	api.filesErr = errors.New("down")
	require.Error(t, c.LoadGallery(context.Background()))
	assert.Len(t, c.Snapshot().Images, 3)
	assert.Equal(t, "Error loading images from bucket", c.Snapshot().Toast.Message)
}

func TestLightboxWraps(t *testing.T) {
	api := &fakeAPI{images: map[string][]Image{"photos": threeImages()}}
	c := NewController(api, Options{})
	c.SelectBucket("photos")
	require.NoError(t, c.LoadGallery(context.Background()))

	c.Open(0)
	c.Prev()
	assert.Equal(t, Lightbox{Open: true, Index: 2}, c.Snapshot().Lightbox)

	c.Next()
	assert.Equal(t, Lightbox{Open: true, Index: 0}, c.Snapshot().Lightbox)

	c.Open(2)
	c.Next()
	assert.Equal(t, Lightbox{Open: true, Index: 0}, c.Snapshot().Lightbox)

	cur, ok := c.Snapshot().Current()
	require.True(t, ok)
	assert.Equal(t, "a", cur.Name)

	c.Close()
	assert.Equal(t, Lightbox{}, c.Snapshot().Lightbox)
}

func TestLightboxEmptyIsNoop(t *testing.T) {
	c := NewController(&fakeAPI{}, Options{})

	c.Open(0)
	c.Next()
	c.Prev()
	assert.Equal(t, Lightbox{}, c.Snapshot().Lightbox)
	_, ok := c.Snapshot().Current()
	assert.False(t, ok)
}

func TestKeysDriveLightbox(t *testing.T) {
	api := &fakeAPI{images: map[string][]Image{"photos": threeImages()}}
	c := NewController(api, Options{})
	keys := NewKeyBus()
	c.Mount(context.Background(), keys)
	defer c.Unmount()

	c.SelectBucket("photos")
	require.NoError(t, c.LoadGallery(context.Background()))
	c.Open(1)

	keys.Dispatch(KeyArrowRight)
	assert.Equal(t, 2, c.Snapshot().Lightbox.Index)
	keys.Dispatch(KeyArrowLeft)
	keys.Dispatch(KeyArrowLeft)
	assert.Equal(t, 0, c.Snapshot().Lightbox.Index)
	keys.Dispatch("Enter")
	assert.True(t, c.Snapshot().Lightbox.Open)
	keys.Dispatch(KeyEscape)
	assert.False(t, c.Snapshot().Lightbox.Open)

	c.Unmount()
	c.Open(1)
	keys.Dispatch(KeyEscape)
	assert.True(t, c.Snapshot().Lightbox.Open)
}

func TestToastAutoHides(t *testing.T) {
	c := NewController(&fakeAPI{}, Options{ToastTimeout: 20 * time.Millisecond})

	hidden := make(chan struct{}, 1)
	unsubscribe := c.Subscribe(func(s State) {
		if !s.Toast.Show && s.Toast.Message != "" {
			select {
			case hidden <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	_, _ = c.Upload(context.Background())
	assert.True(t, c.Snapshot().Toast.Show)

	select {
	case <-hidden:
	case <-time.After(2 * time.Second):
		t.Fatal("toast was not hidden")
	}
	assert.False(t, c.Snapshot().Toast.Show)
	assert.Equal(t, "Please select a bucket first", c.Snapshot().Toast.Message)
}

func TestNewToastReplacesPendingTimer(t *testing.T) {
	c := NewController(&fakeAPI{}, Options{ToastTimeout: time.Hour})

	c.showToast("first", true)
	c.mu.Lock()
	firstGen := c.toastGen
	c.mu.Unlock()

	c.showToast("second", false)
	c.hideToast(firstGen)
	assert.Equal(t, Toast{Message: "second", OK: false, Show: true}, c.Snapshot().Toast)

	c.Unmount()
	c.mu.Lock()
	assert.Nil(t, c.toastTimer)
	c.mu.Unlock()
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	c := NewController(&fakeAPI{}, Options{})
	var calls int
	unsubscribe := c.Subscribe(func(State) { calls++ })

	c.SelectBucket("a")
	assert.Equal(t, 1, calls)

	unsubscribe()
	c.SelectBucket("b")
	assert.Equal(t, 1, calls)
}

func TestSnapshotIsACopy(t *testing.T) {
	api := &fakeAPI{images: map[string][]Image{"photos": threeImages()}}
	c := NewController(api, Options{})
	c.SelectBucket("photos")
	require.NoError(t, c.LoadGallery(context.Background()))

	snap := c.Snapshot()
	snap.Images[0].Name = "changed"
	assert.Equal(t, "a", c.Snapshot().Images[0].Name)
}

func TestStudioURL(t *testing.T) {
	c := NewController(&fakeAPI{}, Options{StudioURL: "https://studio.example.com/"})
	assert.Equal(t, "", c.StudioURL())

	c.SelectBucket("photos")
	assert.Equal(t, "https://studio.example.com/project/default/storage/buckets/photos", c.StudioURL())

	unconfigured := NewController(&fakeAPI{}, Options{})
	unconfigured.SelectBucket("photos")
	assert.Equal(t, "", unconfigured.StudioURL())
}
