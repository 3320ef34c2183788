// Package upstream provides the HTTP client for the protected data
// dependency. The client itself is deliberately plain; callers wrap it with
// the resilience primitives.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// Config configures the upstream client.
type Config struct {
	// BaseURL is the base URL prepended to all request paths. Empty disables
	// the client.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout is the per-request timeout. Defaults to 10s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return nil
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("upstream: invalid base_url: %w", err)
	}
	return nil
}

// Enabled reports whether an upstream is configured.
func (c *Config) Enabled() bool { return c.BaseURL != "" }

// Client is a JSON HTTP client for the upstream data service.
type Client struct {
	httpClient *http.Client
	config     Config
}

// New creates an upstream client.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
	}, nil
}

// FetchJSON issues a GET for the given path and decodes the JSON response.
// Errors are classified so retry policies can distinguish transient failures
// from permanent ones.
func (c *Client) FetchJSON(ctx context.Context, path string) (any, error) {
	reqURL := strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Code: ErrCodeClient, Message: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, newStatusError(resp.StatusCode)
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &Error{Code: ErrCodeDecode, Message: err.Error(), Err: err}
	}
	return body, nil
}

func classifyTransportError(err error) *Error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Code: ErrCodeTimeout, Message: err.Error(), Retryable: true, Err: err}
	}
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}
