// Package gallery holds the client-side state of the image gallery and the
// HTTP client it drives the gateway with.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"gallery-service/internal/storage"
	"gallery-service/pkg/validator"
)

const (
	// DefaultToastTimeout is how long a toast stays visible.
	DefaultToastTimeout = 3 * time.Second

	imageContentTypePrefix = "image/"
	studioBucketPathFmt    = "%s/project/default/storage/buckets/%s"

	msgLoadBucketsFailed = "Failed to load buckets"
	msgEnterBucketName   = "Please enter a bucket name"
	msgCreatingBucket    = "Creating bucket..."
	msgBucketCreatedFmt  = "Bucket %q created successfully!"
	msgBucketExistsFmt   = "Bucket %q already exists"
	msgErrorFmt          = "Error: %s"
	msgImagesOnly        = "Please select image files only"
	msgPartialImagesFmt  = "Only %d of %d files are images"
	msgSelectBucketFirst = "Please select a bucket first"
	msgNoFilesSelected   = "No files selected"
	msgUploadingFmt      = "Uploading %d image(s)..."
	msgUploadedToastFmt  = "Successfully uploaded %d image(s)!"
	msgUploadedStatusFmt = "Uploaded %d file(s) to %q."
	msgUploadFailedFmt   = "%d file(s) failed to upload"
	msgLoadingImagesFmt  = "Loading images from %q..."
	msgLoadedImagesFmt   = "Loaded %d image(s) from %q"
	msgLoadImagesFailed  = "Error loading images from bucket"
)

var (
	ErrBucketNameRequired = errors.New("bucket name is required")
	ErrBucketExists       = errors.New("bucket already exists")
	ErrNoBucketSelected   = errors.New("no bucket selected")
	ErrNoFilesSelected    = errors.New("no files selected")
	ErrNoImages           = errors.New("no image files selected")
)

// API is the subset of the gateway client the controller uses.
type API interface {
	ListBuckets(ctx context.Context) ([]storage.Bucket, error)
	CreateBucket(ctx context.Context, name string) (*storage.Bucket, error)
	ListFiles(ctx context.Context, bucket string) ([]Image, error)
	Upload(ctx context.Context, bucket string, file SelectedFile) error
}

type Options struct {
	// ToastTimeout defaults to DefaultToastTimeout.
	ToastTimeout time.Duration
	// StudioURL is the storage console base used by StudioURL.
	StudioURL string
}

// Controller owns gallery State. All methods are safe for concurrent use;
// network calls run without holding the state lock.
type Controller struct {
	api  API
	opts Options

	mu         sync.Mutex
	state      State
	toastTimer *time.Timer
	toastGen   uint64
	listeners  map[int]func(State)
	nextID     int
	unsubKeys  func()
}

func NewController(api API, opts Options) *Controller {
	if opts.ToastTimeout <= 0 {
		opts.ToastTimeout = DefaultToastTimeout
	}
	opts.StudioURL = strings.TrimRight(opts.StudioURL, "/")

	return &Controller{
		api:       api,
		opts:      opts,
		listeners: make(map[int]func(State)),
	}
}

// Mount loads the bucket list and starts handling lightbox keys from keys.
// Unmount undoes it.
func (c *Controller) Mount(ctx context.Context, keys KeySource) {
	if keys != nil {
		unsub := keys.Subscribe(c.HandleKey)
		c.mu.Lock()
		if c.unsubKeys != nil {
			c.unsubKeys()
		}
		c.unsubKeys = unsub
		c.mu.Unlock()
	}

	_ = c.LoadBuckets(ctx)
}

// Unmount removes the key subscription and cancels a pending toast timer.
func (c *Controller) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unsubKeys != nil {
		c.unsubKeys()
		c.unsubKeys = nil
	}
	if c.toastTimer != nil {
		c.toastTimer.Stop()
		c.toastTimer = nil
	}
	c.toastGen++
}

// Subscribe registers fn to receive a snapshot after every state change.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// StudioURL links to the selected bucket in the storage console. It is empty
// when no bucket is selected or no console is configured.
func (c *Controller) StudioURL() string {
	c.mu.Lock()
	bucket := c.state.SelectedBucket
	c.mu.Unlock()

	if bucket == "" || c.opts.StudioURL == "" {
		return ""
	}
	return fmt.Sprintf(studioBucketPathFmt, c.opts.StudioURL, url.PathEscape(bucket))
}

func (c *Controller) SelectBucket(name string) {
	c.update(func(s *State) {
		s.SelectedBucket = name
	})
}

// LoadBuckets refreshes the bucket list. On failure the previous list stays.
func (c *Controller) LoadBuckets(ctx context.Context) error {
	buckets, err := c.api.ListBuckets(ctx)
	if err != nil {
		log.Printf("gallery: error loading buckets: %v", err)
		c.showToast(msgLoadBucketsFailed, false)
		return err
	}

	c.update(func(s *State) {
		s.Buckets = buckets
	})
	return nil
}

// CreateBucket creates name and selects it. When the gateway reports the
// bucket already exists it is selected anyway, the notice is shown in error
// style and ErrBucketExists returned.
func (c *Controller) CreateBucket(ctx context.Context, name string) error {
	name = validator.TrimBucketName(name)
	if name == "" {
		c.showToast(msgEnterBucketName, false)
		return ErrBucketNameRequired
	}

	c.showToast(msgCreatingBucket, true)
	c.update(func(s *State) {
		s.CreateStatus = msgCreatingBucket
	})

	if _, err := c.api.CreateBucket(ctx, name); err != nil {
		if isBucketExists(err) {
			msg := fmt.Sprintf(msgBucketExistsFmt, name)
			c.showToast(msg, false)
			c.update(func(s *State) {
				s.CreateStatus = msg
				s.SelectedBucket = name
			})
			return fmt.Errorf("%w: %s", ErrBucketExists, name)
		}

		msg := fmt.Sprintf(msgErrorFmt, err.Error())
		c.showToast(msg, false)
		c.update(func(s *State) {
			s.CreateStatus = msg
		})
		return err
	}

	msg := fmt.Sprintf(msgBucketCreatedFmt, name)
	c.showToast(msg, true)
	c.update(func(s *State) {
		s.CreateStatus = msg
		s.SelectedBucket = name
	})

	return c.LoadBuckets(ctx)
}

func isBucketExists(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		return true
	}
	return storage.IsConflictMessage(err.Error())
}

// SelectFiles keeps only image files as the pending selection and returns
// how many were kept.
func (c *Controller) SelectFiles(files []SelectedFile) (int, error) {
	images := make([]SelectedFile, 0, len(files))
	for _, f := range files {
		if strings.HasPrefix(f.ContentType, imageContentTypePrefix) {
			images = append(images, f)
		}
	}

	if len(images) == 0 {
		c.showToast(msgImagesOnly, false)
		c.update(func(s *State) {
			s.SelectedFiles = nil
		})
		return 0, ErrNoImages
	}

	if len(images) != len(files) {
		c.showToast(fmt.Sprintf(msgPartialImagesFmt, len(images), len(files)), false)
	}
	c.update(func(s *State) {
		s.SelectedFiles = images
	})

	return len(images), nil
}

// Upload sends each selected file in its own request, one at a time, and
// keeps going after failures. The selection is cleared and the gallery
// reloaded when at least one file made it.
func (c *Controller) Upload(ctx context.Context) (UploadResult, error) {
	snap := c.Snapshot()
	bucket, files := snap.SelectedBucket, snap.SelectedFiles

	if bucket == "" {
		c.showToast(msgSelectBucketFirst, false)
		return UploadResult{}, ErrNoBucketSelected
	}
	if len(files) == 0 {
		c.showToast(msgNoFilesSelected, false)
		return UploadResult{}, ErrNoFilesSelected
	}

	uploading := fmt.Sprintf(msgUploadingFmt, len(files))
	c.showToast(uploading, true)
	c.update(func(s *State) {
		s.UploadStatus = uploading
	})

	var result UploadResult
	for _, f := range files {
		if err := c.api.Upload(ctx, bucket, f); err != nil {
			log.Printf("gallery: upload error for %s: %v", f.Name, err)
			result.Failed++
			continue
		}
		result.Succeeded++
	}

	if result.Succeeded > 0 {
		c.showToast(fmt.Sprintf(msgUploadedToastFmt, result.Succeeded), true)
		c.update(func(s *State) {
			s.UploadStatus = fmt.Sprintf(msgUploadedStatusFmt, result.Succeeded, bucket)
		})
		_ = c.LoadGallery(ctx)
		c.update(func(s *State) {
			s.SelectedFiles = nil
		})
	}
	if result.Failed > 0 {
		c.showToast(fmt.Sprintf(msgUploadFailedFmt, result.Failed), false)
	}

	return result, nil
}

// LoadGallery replaces Images with the selected bucket's files.
func (c *Controller) LoadGallery(ctx context.Context) error {
	bucket := c.Snapshot().SelectedBucket
	if bucket == "" {
		c.showToast(msgSelectBucketFirst, false)
		return ErrNoBucketSelected
	}

	c.showToast(fmt.Sprintf(msgLoadingImagesFmt, bucket), true)

	images, err := c.api.ListFiles(ctx, bucket)
	if err != nil {
		c.showToast(msgLoadImagesFailed, false)
		return err
	}
	if images == nil {
		images = []Image{}
	}

	c.update(func(s *State) {
		s.Images = images
		if s.Lightbox.Index >= len(images) {
			s.Lightbox = Lightbox{}
		}
	})
	c.showToast(fmt.Sprintf(msgLoadedImagesFmt, len(images), bucket), true)

	return nil
}

// Open shows image i in the lightbox. Out of range indexes are ignored.
func (c *Controller) Open(i int) {
	c.update(func(s *State) {
		if i < 0 || i >= len(s.Images) {
			return
		}
		s.Lightbox = Lightbox{Open: true, Index: i}
	})
}

func (c *Controller) Close() {
	c.update(func(s *State) {
		s.Lightbox = Lightbox{}
	})
}

// Prev and Next step through Images, wrapping at either end.
func (c *Controller) Prev() {
	c.step(-1)
}

func (c *Controller) Next() {
	c.step(1)
}

func (c *Controller) step(delta int) {
	c.update(func(s *State) {
		n := len(s.Images)
		if n == 0 {
			return
		}
		s.Lightbox = Lightbox{Open: true, Index: ((s.Lightbox.Index+delta)%n + n) % n}
	})
}

// HandleKey maps lightbox keys to navigation.
func (c *Controller) HandleKey(key string) {
	switch key {
	case KeyEscape:
		c.Close()
	case KeyArrowLeft:
		c.Prev()
	case KeyArrowRight:
		c.Next()
	}
}

// showToast displays message and hides it after the toast timeout. A newer
// toast cancels the pending hide of an older one.
func (c *Controller) showToast(message string, ok bool) {
	c.mu.Lock()
	c.state.Toast = Toast{Message: message, OK: ok, Show: true}
	if c.toastTimer != nil {
		c.toastTimer.Stop()
	}
	c.toastGen++
	gen := c.toastGen
	c.toastTimer = time.AfterFunc(c.opts.ToastTimeout, func() {
		c.hideToast(gen)
	})
	snap, listeners := c.snapshotLocked()
	c.mu.Unlock()

	notify(snap, listeners)
}

func (c *Controller) hideToast(gen uint64) {
	c.mu.Lock()
	if gen != c.toastGen {
		c.mu.Unlock()
		return
	}
	c.state.Toast.Show = false
	c.toastTimer = nil
	snap, listeners := c.snapshotLocked()
	c.mu.Unlock()

	notify(snap, listeners)
}

func (c *Controller) update(fn func(*State)) {
	c.mu.Lock()
	fn(&c.state)
	snap, listeners := c.snapshotLocked()
	c.mu.Unlock()

	notify(snap, listeners)
}

func (c *Controller) snapshotLocked() (State, []func(State)) {
	listeners := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	return c.state.clone(), listeners
}

func notify(snap State, listeners []func(State)) {
	for _, fn := range listeners {
		fn(snap)
	}
}
