// Package helius manages the upstream transaction-monitoring subscription:
// a single enhanced webhook whose watched-address set mirrors the registry.
package helius

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.helius.xyz/v0"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
	DefaultMaxDelay   = 10 * time.Second
)

// ErrNotFound is returned when a webhook ID does not exist upstream.
var ErrNotFound = errors.New("webhook not found")

// Webhook mirrors the upstream webhook resource.
type Webhook struct {
	WebhookID        string   `json:"webhookID"`
	WebhookURL       string   `json:"webhookURL"`
	TransactionTypes []string `json:"transactionTypes"`
	AccountAddresses []string `json:"accountAddresses"`
	WebhookType      string   `json:"webhookType"`
}

// webhookRequest is the create/update payload. The address list is always
// the full desired set: pushes are replace-style and idempotent.
type webhookRequest struct {
	WebhookURL       string   `json:"webhookURL"`
	TransactionTypes []string `json:"transactionTypes"`
	AccountAddresses []string `json:"accountAddresses"`
	WebhookType      string   `json:"webhookType"`
}

// Client is an HTTP client for the webhook management API.
type Client struct {
	baseURL    string
	apiKey     string
	webhookURL string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a webhook management client. webhookURL is the publicly
// reachable delivery endpoint registered with the upstream monitor.
func NewClient(apiKey, webhookURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		maxDelay:   DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WebhookURL returns the registered delivery endpoint.
func (c *Client) WebhookURL() string {
	return c.webhookURL
}

// List returns all webhooks registered under the API key.
func (c *Client) List(ctx context.Context) ([]Webhook, error) {
	var hooks []Webhook
	if err := c.do(ctx, http.MethodGet, "/webhooks", nil, &hooks); err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	return hooks, nil
}

// Create registers a new enhanced SWAP webhook watching the given addresses
// and returns its ID.
func (c *Client) Create(ctx context.Context, addresses []string) (string, error) {
	req := c.request(addresses)
	var created Webhook
	if err := c.do(ctx, http.MethodPost, "/webhooks", &req, &created); err != nil {
		return "", fmt.Errorf("create webhook: %w", err)
	}
	return created.WebhookID, nil
}

// Update replaces the watched-address set of an existing webhook.
func (c *Client) Update(ctx context.Context, webhookID string, addresses []string) error {
	req := c.request(addresses)
	if err := c.do(ctx, http.MethodPut, "/webhooks/"+webhookID, &req, nil); err != nil {
		return fmt.Errorf("update webhook %s: %w", webhookID, err)
	}
	return nil
}

// Delete removes a webhook.
func (c *Client) Delete(ctx context.Context, webhookID string) error {
	if err := c.do(ctx, http.MethodDelete, "/webhooks/"+webhookID, nil, nil); err != nil {
		return fmt.Errorf("delete webhook %s: %w", webhookID, err)
	}
	return nil
}

func (c *Client) request(addresses []string) webhookRequest {
	return webhookRequest{
		WebhookURL:       c.webhookURL,
		TransactionTypes: []string{"SWAP"},
		AccountAddresses: addresses,
		WebhookType:      "enhanced",
	}
}

// do performs one API call with bounded retry and exponential backoff on
// transient failures (network errors, 429, 5xx). 4xx responses other than
// 429 are not retried.
func (c *Client) do(ctx context.Context, method, path string, reqBody, result interface{}) error {
	var encoded []byte
	if reqBody != nil {
		var err error
		encoded, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	url := c.baseURL + path + "?api-key=" + c.apiKey

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		var body io.Reader
		if encoded != nil {
			body = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if encoded != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
			continue
		case resp.StatusCode == http.StatusNotFound:
			return ErrNotFound
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
		}

		if result != nil {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("unmarshal response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
