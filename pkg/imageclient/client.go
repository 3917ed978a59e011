// Package imageclient is a client for the image hosting API: presigned uploads,
// listing and base64 retrieval.
package imageclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dreschagin/image-gallery/pkg/logger"
)

const (
	uploadURLPath  = "/api/upload-url"
	listImagesPath = "/api/list-images"
	viewImagePath  = "/api/view-image/"
	rawImagePath   = "/api/images/"
	healthPath     = "/health"

	maxErrorBody = 512
)

var allowedTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/jpg":  {},
}

// HTTPClient is the transport the client sends requests through. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer receives per-operation telemetry. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveOperation(operation string, startedAt time.Time, err error)
	AddUploadedBytes(n int)
	RejectValidation(reason string)
}

// Client talks to one image API. It holds no per-call state and is safe for concurrent use.
type Client struct {
	baseURL  string
	http     HTTPClient
	log      *logger.Logger
	observer Observer
}

type Option func(*Client)

func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func WithMetrics(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base url must be absolute, got %q", baseURL)
	}

	c := &Client{
		baseURL: baseURL,
		http:    http.DefaultClient,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// RequestUpload obtains an upload grant for file and transfers its bytes to it.
// Both steps must succeed; nothing is retried.
func (c *Client) RequestUpload(ctx context.Context, file *File) (err error) {
	startedAt := time.Now()
	defer func() { c.observe("request_upload", startedAt, err) }()

	if err := c.validateFile(file); err != nil {
		return err
	}

	uploadReq := newUploadRequest(file)
	grant, err := c.requestGrant(ctx, uploadReq)
	if err != nil {
		return &UploadError{Stage: StageGrant, Err: err}
	}

	c.log.Debug("upload grant received",
		"filename", uploadReq.Filename,
		"key", grant.Key,
		"expires_in", grant.ExpiresIn,
	)

	if err := c.transfer(ctx, grant.UploadURL, uploadReq.ContentType, file.Data); err != nil {
		return &UploadError{Stage: StageTransfer, Err: err}
	}

	if c.observer != nil {
		c.observer.AddUploadedBytes(len(file.Data))
	}
	c.log.Info("image uploaded", "filename", uploadReq.Filename, "bytes", len(file.Data))
	return nil
}

func (c *Client) validateFile(file *File) error {
	var reason string
	var cause error

	switch {
	case file == nil:
		reason, cause = "no_file", ErrNoFile
	case !isAllowedType(file.Type):
		reason, cause = "unsupported_type", ErrUnsupportedType
	case strings.TrimSpace(file.Name) == "":
		reason, cause = "missing_name", ErrMissingName
	}

	if cause == nil {
		return nil
	}
	if c.observer != nil {
		c.observer.RejectValidation(reason)
	}
	return &ValidationError{Err: cause}
}

func isAllowedType(contentType string) bool {
	_, ok := allowedTypes[normalizeType(contentType)]
	return ok
}

func (c *Client) requestGrant(ctx context.Context, uploadReq UploadRequest) (*UploadGrant, error) {
	body, err := json.Marshal(uploadReq)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadURLPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var grant UploadGrant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return nil, fmt.Errorf("decoding upload grant: %w", err)
	}

	target, err := url.Parse(grant.UploadURL)
	if err != nil || !target.IsAbs() || target.Host == "" {
		return nil, fmt.Errorf("upload grant carries an invalid uploadUrl %q", redactQuery(grant.UploadURL))
	}

	return &grant, nil
}

func (c *Client) transfer(ctx context.Context, uploadURL, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

// ListImages starts a listing. The returned iterator must be drained or closed.
func (c *Client) ListImages(ctx context.Context) (*ImageIterator, error) {
	startedAt := time.Now()

	resp, err := c.get(ctx, listImagesPath, "application/json")
	if err == nil {
		if statusErr := checkStatus(resp); statusErr != nil {
			resp.Body.Close()
			err = statusErr
		}
	}
	if err != nil {
		listErr := &ListError{Err: err}
		c.observe("list_images", startedAt, listErr)
		return nil, listErr
	}

	return newImageIterator(resp.Body, func(iterErr error) {
		c.observe("list_images", startedAt, iterErr)
	}), nil
}

// ListAll returns every descriptor of one listing in server order.
func (c *Client) ListAll(ctx context.Context) ([]ImageDescriptor, error) {
	it, err := c.ListImages(ctx)
	if err != nil {
		return nil, err
	}
	return it.Collect()
}

func (c *Client) ViewImage(ctx context.Context, imageID string) (payload *ImagePayload, err error) {
	startedAt := time.Now()
	defer func() { c.observe("view_image", startedAt, err) }()

	if imageID == "" {
		return nil, &ValidationError{Err: ErrMissingImageID}
	}

	resp, err := c.get(ctx, viewImagePath+url.PathEscape(imageID), "application/json")
	if err != nil {
		return nil, &FetchError{ImageID: imageID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{ImageID: imageID}
	}
	if err := checkStatus(resp); err != nil {
		return nil, &FetchError{ImageID: imageID, Err: err}
	}

	var decoded ImagePayload
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &FetchError{ImageID: imageID, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if decoded.ContentType == "" {
		decoded.ContentType = defaultContentType
	}

	if _, err := decoded.Decode(); err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			decodeErr.ImageID = imageID
		}
		return nil, err
	}

	return &decoded, nil
}

// DownloadImage fetches the raw bytes of an image and the content type the server reports.
func (c *Client) DownloadImage(ctx context.Context, imageID string) (data []byte, contentType string, err error) {
	startedAt := time.Now()
	defer func() { c.observe("download_image", startedAt, err) }()

	if imageID == "" {
		return nil, "", &ValidationError{Err: ErrMissingImageID}
	}

	resp, err := c.get(ctx, rawImagePath+url.PathEscape(imageID), "*/*")
	if err != nil {
		return nil, "", &FetchError{ImageID: imageID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", &NotFoundError{ImageID: imageID}
	}
	if err := checkStatus(resp); err != nil {
		return nil, "", &FetchError{ImageID: imageID, Err: err}
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &FetchError{ImageID: imageID, Err: fmt.Errorf("reading body: %w", err)}
	}

	contentType = resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	return data, contentType, nil
}

// Health checks that the API answers {"status":"ok"}.
func (c *Client) Health(ctx context.Context) (err error) {
	startedAt := time.Now()
	defer func() { c.observe("health", startedAt, err) }()

	resp, err := c.get(ctx, healthPath, "application/json")
	if err != nil {
		return &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return &FetchError{Err: err}
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return &FetchError{Err: fmt.Errorf("decoding health response: %w", err)}
	}
	if body.Status != "ok" {
		return &FetchError{Err: fmt.Errorf("api reported status %q", body.Status)}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", accept)
	return c.http.Do(req)
}

func (c *Client) observe(operation string, startedAt time.Time, err error) {
	if c.observer != nil {
		c.observer.ObserveOperation(operation, startedAt, err)
	}
	if err != nil {
		c.log.Warn("image client operation failed", "operation", operation, "error", err.Error())
	}
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

func redactQuery(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i] + "?..."
	}
	return raw
}
