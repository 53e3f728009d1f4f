// Package kit records resume generations against email-list subscribers in
// Kit (formerly ConvertKit) through its v4 REST API.
package kit

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
	"strconv"
	"strings"
	"time"

	"github.com/phrazzld/resumeq/internal/config"
)

// DefaultBaseURL is the Kit v4 API root.
const DefaultBaseURL = "https://api.kit.com/v4"

// Custom subscriber fields written after each generation.
const (
	FieldLastGenerationDate = "last_generation_date"
	FieldTotalGenerations   = "total_generations"
)

// ErrSubscriberNotFound is returned when no subscriber has the given email.
var ErrSubscriberNotFound = errors.New("subscriber not found")

// Subscriber is the part of a Kit subscriber record this package uses.
type Subscriber struct {
	ID           int64                  `json:"id"`
	EmailAddress string                 `json:"email_address"`
	Fields       map[string]interface{} `json:"fields"`
}

// Client is a Kit API client authenticated with an API key.
type Client struct {
	base   string
	apiKey string
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewClient returns a Client for cfg. It returns nil when cfg.APIKey is
// empty, which disables tracking.
func NewClient(cfg config.KitConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		apiKey: cfg.APIKey,
		client: httpClient,
		logger: logger.With("component", "kit"),
		now:    time.Now,
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("X-Kit-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("kit request %s %s failed: %w", method, path, err)
	}
	defer func() { _ = res.Body.Close() }()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode >= 300 {
		return fmt.Errorf("kit request %s %s returned %d: %s",
			method, path, res.StatusCode, strings.TrimSpace(string(resBody)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(resBody, out)
}

// SubscriberByEmail looks up a subscriber by email address.
func (c *Client) SubscriberByEmail(ctx context.Context, email string) (*Subscriber, error) {
	var res struct {
		Subscribers []Subscriber `json:"subscribers"`
	}
	if err := c.do(ctx, http.MethodGet, "/subscribers?email_address="+url.QueryEscape(email), nil, &res); err != nil {
		return nil, err
	}
	if len(res.Subscribers) == 0 {
		return nil, ErrSubscriberNotFound
	}
	return &res.Subscribers[0], nil
}

// UpdateFields merges custom fields into a subscriber.
func (c *Client) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	path := "/subscribers/" + strconv.FormatInt(id, 10)
	return c.do(ctx, http.MethodPut, path, map[string]interface{}{"fields": fields}, nil)
}

// TrackResumeGenerated stamps last_generation_date and increments
// total_generations for the subscriber with email.
func (c *Client) TrackResumeGenerated(ctx context.Context, email string) error {
	sub, err := c.SubscriberByEmail(ctx, email)
	if err != nil {
		return err
	}

	total := totalGenerations(sub.Fields[FieldTotalGenerations])
	err = c.UpdateFields(ctx, sub.ID, map[string]interface{}{
		FieldLastGenerationDate: c.now().UTC().Format(time.RFC3339),
		FieldTotalGenerations:   total + 1,
	})
	if err != nil {
		return fmt.Errorf("failed to update subscriber fields: %w", err)
	}

	c.logger.DebugContext(ctx, "tracked resume generation",
		"subscriber_id", sub.ID,
		"total_generations", total+1)
	return nil
}

// totalGenerations reads the counter field, which Kit returns as a string,
// a number or null.
func totalGenerations(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}
