package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/resumeq/internal/config"
)

// Content types of generated files.
const (
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypePDF  = "application/pdf"
)

const defaultTimeout = 30 * time.Second

// ObjectStore stores files under bucket-relative paths such as
// "<userId>/<generationId>_<ms>.pdf".
type ObjectStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	Delete(ctx context.Context, paths []string) error
	List(ctx context.Context, prefix string) ([]Object, error)
	PublicURL(path string) string
}

// Object describes one stored file.
type Object struct {
	Name      string    `json:"name"`
	ID        string    `json:"id,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("storage: %d %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to one bucket with the service-role key.
type Client struct {
	base   string
	key    string
	bucket string
	client *http.Client
	logger *slog.Logger
}

var _ ObjectStore = (*Client)(nil)

// NewClient returns a Client for cfg. A nil httpClient uses a client with a
// 30 second timeout.
func NewClient(cfg config.StorageConfig, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if cfg.URL == "" || cfg.Bucket == "" || cfg.ServiceKey == "" {
		return nil, errors.New("storage url, bucket and service key are required")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		base:   strings.TrimRight(cfg.URL, "/"),
		key:    cfg.ServiceKey,
		bucket: cfg.Bucket,
		client: httpClient,
		logger: logger.With("component", "storage", "bucket", cfg.Bucket),
	}, nil
}

// escapePath escapes each segment of a bucket-relative path.
func escapePath(p string) string {
	segments := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("apikey", c.key)
	return req, nil
}

// do performs r and decodes a 2xx JSON body into v when v is non-nil.
func (c *Client) do(r *http.Request, v interface{}) error {
	res, err := c.client.Do(r)
	if err != nil {
		return fmt.Errorf("storage request %s %s failed: %w", r.Method, r.URL.Path, err)
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read storage response: %w", err)
	}

	if res.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: res.StatusCode, Message: strings.TrimSpace(string(body))}
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil {
			if payload.Message != "" {
				apiErr.Message = payload.Message
			} else if payload.Error != "" {
				apiErr.Message = payload.Error
			}
		}
		return apiErr
	}

	if v == nil {
		return nil
	}
	return json.Unmarshal(body, v)
}

// Upload stores data at path. Existing objects are not overwritten.
func (c *Client) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	req, err := c.newRequest(ctx, http.MethodPost,
		"/storage/v1/object/"+url.PathEscape(c.bucket)+"/"+escapePath(path),
		bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("failed to upload %s: %w", path, err)
	}
	c.logger.DebugContext(ctx, "uploaded object", "path", path, "bytes", len(data))
	return nil
}

// Delete removes paths in a single request. An empty slice is a no-op.
func (c *Client) Delete(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	body, err := json.Marshal(map[string][]string{"prefixes": paths})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodDelete,
		"/storage/v1/object/"+url.PathEscape(c.bucket), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("failed to delete %d objects: %w", len(paths), err)
	}
	c.logger.InfoContext(ctx, "deleted objects", "count", len(paths))
	return nil
}

// listLimit is the page size requested from the list endpoint.
const listLimit = 1000

// List returns the objects directly under prefix, for example a user id.
func (c *Client) List(ctx context.Context, prefix string) ([]Object, error) {
	body, err := json.Marshal(map[string]interface{}{
		"prefix": strings.Trim(prefix, "/"),
		"limit":  listLimit,
		"offset": 0,
		"sortBy": map[string]string{"column": "name", "order": "asc"},
	})
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost,
		"/storage/v1/object/list/"+url.PathEscape(c.bucket), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var objects []Object
	if err := c.do(req, &objects); err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", prefix, err)
	}
	return objects, nil
}

// PublicURL returns the public download URL for path.
func (c *Client) PublicURL(path string) string {
	return c.base + "/storage/v1/object/public/" + url.PathEscape(c.bucket) + "/" + escapePath(path)
}
