package gallery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"gallery-service/internal/storage"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	maxErrorBodyBytes  = 1 << 16

	pathBuckets = "/api/buckets"
	pathFiles   = "/api/files"
	pathUpload  = "/api/upload"

	fallbackLoadBuckets = "Failed to load buckets"
	fallbackCreate      = "Failed"
	fallbackLoadFiles   = "Failed to load files"
	fallbackUpload      = "Upload failed"
)

// APIError is a non-2xx gateway response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Image is one gallery entry.
type Image struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SelectedFile is a local file picked for upload.
type SelectedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Client talks to the gateway's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient targets the gateway at baseURL. A nil httpClient gets a default
// with a request timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) ListBuckets(ctx context.Context) ([]storage.Bucket, error) {
	var out struct {
		Buckets []storage.Bucket `json:"buckets"`
	}
	if err := c.do(ctx, http.MethodGet, pathBuckets, nil, "", fallbackLoadBuckets, &out); err != nil {
		return nil, err
	}
	return out.Buckets, nil
}

func (c *Client) CreateBucket(ctx context.Context, name string) (*storage.Bucket, error) {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return nil, err
	}

	var out struct {
		Bucket *storage.Bucket `json:"bucket"`
	}
	if err := c.do(ctx, http.MethodPost, pathBuckets, bytes.NewReader(body), "application/json", fallbackCreate, &out); err != nil {
		return nil, err
	}
	return out.Bucket, nil
}

func (c *Client) ListFiles(ctx context.Context, bucket string) ([]Image, error) {
	var out struct {
		Files []Image `json:"files"`
	}
	path := pathFiles + "?bucket=" + url.QueryEscape(bucket)
	if err := c.do(ctx, http.MethodGet, path, nil, "", fallbackLoadFiles, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// Upload sends a single file in its own request.
func (c *Client) Upload(ctx context.Context, bucket string, file SelectedFile) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	if file.ContentType != "" {
		h.Set("Content-Type", file.ContentType)
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := part.Write(file.Data); err != nil {
		return err
	}
	if err := w.WriteField("bucket", bucket); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return c.do(ctx, http.MethodPost, pathUpload, &buf, w.FormDataContentType(), fallbackUpload, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType, fallback string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := fallback
		if json.NewDecoder(io.LimitReader(resp.Body, maxErrorBodyBytes)).Decode(&e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
