// Package content talks to the external content system: fetching callouts
// and submitting responses over its HTTP API, and watching for content
// changes on a schedule.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/calloutkit/calloutbot/internal/models"
)

// Opts holds configuration options for the content client.
type Opts struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Option defines a configuration option for the content client.
type Option func(*Opts)

// WithBaseURL sets the content system's API base URL.
func WithBaseURL(url string) Option {
	return func(o *Opts) {
		o.BaseURL = url
	}
}

// WithToken sets the bearer token for API access.
func WithToken(token string) Option {
	return func(o *Opts) {
		o.Token = token
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) {
		o.Timeout = d
	}
}

// Client is the HTTP client for the content system's callout API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a content client, applying any provided options.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("content client requires a base URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// List fetches all open callouts.
func (c *Client) List(ctx context.Context) ([]models.Callout, error) {
	var callouts []models.Callout
	if err := c.get(ctx, "/api/callouts", &callouts); err != nil {
		return nil, fmt.Errorf("failed to list callouts: %w", err)
	}
	return callouts, nil
}

// Get fetches one callout by slug, including its full form schema.
func (c *Client) Get(ctx context.Context, slug string) (*models.Callout, error) {
	var callout models.Callout
	if err := c.get(ctx, "/api/callouts/"+slug, &callout); err != nil {
		return nil, fmt.Errorf("failed to get callout %q: %w", slug, err)
	}
	return &callout, nil
}

// SubmitResponse posts one grouped answer set for a callout. The guest
// fields are omitted when the subscriber answers anonymously.
func (c *Client) SubmitResponse(ctx context.Context, slug string, answers models.CalloutResponseAnswers, guest *models.Subscriber) error {
	payload := map[string]any{"answers": answers}
	if guest != nil && !guest.Anonymous {
		payload["guestName"] = strings.TrimSpace(guest.FirstName + " " + guest.LastName)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode response payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/callouts/"+slug+"/responses", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to submit response for callout %q: %w", slug, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("content system rejected response for callout %q: status %d", slug, resp.StatusCode)
	}

	slog.Info("Content.SubmitResponse: response submitted", "slug", slug)
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
