// Package api talks to the agent chat server: the server-sent event channel,
// message submission and the health probe.
package api

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

)

// Doer sends HTTP requests. tls_client.HttpClient satisfies it.
type Doer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
}

// Client is the agent chat server client.
//
// It keeps two transports: requests (submit, health) are bounded by the
// configured timeout, while the event stream has none since it stays open
// for the life of the session.
type Client struct {
	baseURL  string
	timeout  time.Duration
	requests Doer
	stream   Doer
	logger   *slog.Logger
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithTimeout sets the timeout for submit and health requests
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the request transport
func WithHTTPClient(d Doer) ClientOption {
	return func(c *Client) {
		c.requests = d
	}
}

// WithStreamClient replaces the event stream transport
func WithStreamClient(d Doer) ClientOption {
	return func(c *Client) {
		c.stream = d
	}
}

// WithLogger sets the logger for request and event tracing
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: must be http(s)://host[:port]", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		timeout: 60 * time.Second,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.requests == nil {
		c.requests, err = newHTTPClient(int(c.timeout / time.Second))
		if err != nil {
			return nil, err
		}
	}
	if c.stream == nil {
		c.stream, err = newHTTPClient(0)
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

// newHTTPClient creates a TLS client with a Chrome profile. A zero timeout
// disables the deadline.
func newHTTPClient(timeoutSeconds int) (tls_client.HttpClient, error) {
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(timeoutSeconds),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithNotFollowRedirects(),
	}

	httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return httpClient, nil
}

// BaseURL returns the server URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

func setHeaders(req *fhttp.Request, headers map[string]string) {
	for key, value := range headers {
		req.Header.Set(key, value)
	}
}
