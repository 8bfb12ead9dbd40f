package boxclient

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/AmmannChristian/go-boxclient/boxhttp"
)

// DefaultBaseURL is the Box content API root.
const DefaultBaseURL = "https://api.box.com/2.0"

// Logger is an interface for optional logging in Client.
type Logger interface {
	Printf(format string, args ...any)
}

// Requester is the surface resource managers use.
type Requester interface {
	MakeRequest(ctx context.Context, path string, opts *RequestOptions) (*Result, error)
}

var _ Requester = (*Client)(nil)

// Config holds the construction settings of a Client.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string `mapstructure:"baseUrl"`

	// AccessToken, when it resolves, becomes the stored token.
	AccessToken TokenInput `mapstructure:"-"`

	// NoRequestMode makes MakeRequest return the normalized options without dispatching.
	NoRequestMode bool `mapstructure:"noRequestMode"`

	// SkipValidation and SimpleMode are read by resource managers.
	SkipValidation bool `mapstructure:"skipValidation"`
	SimpleMode     bool `mapstructure:"simpleMode"`
}

// ConfigFromMap decodes a configuration map with the keys baseUrl,
// noRequestMode, skipValidation, simpleMode and accessToken or access_token.
// The token keys follow the same order as Resolve.
func ConfigFromMap(m map[string]any) (Config, error) {
	var cfg Config
	if len(m) == 0 {
		return cfg, nil
	}

	if err := mapstructure.Decode(m, &cfg); err != nil {
		return Config{}, fmt.Errorf("boxclient: decode config: %w", err)
	}

	var token any
	for _, key := range tokenKeys {
		if v, ok := m[key]; ok {
			token = v
		}
	}
	cfg.AccessToken = tokenFromValue(token)

	return cfg, nil
}

// Client is the request-shaping façade of the SDK. Base URL and mode flags are
// fixed at construction; the stored token changes through SetAccessToken,
// RemoveAccessToken and RemoveAccessTokenAndRerunRequest.
type Client struct {
	baseAPIURL     string
	noRequestMode  bool
	skipValidation bool
	simpleMode     bool

	mu             sync.RWMutex
	storedToken    string
	hasStoredToken bool

	transport Transport
	logger    Logger // optional logger
}

// Option is a functional option for configuring Client.
type Option func(*Client)

// WithTransport sets the transport used for dispatch.
func WithTransport(transport Transport) Option {
	return func(c *Client) {
		c.transport = transport
	}
}

// WithHTTPClient dispatches through the given boxhttp client.
func WithHTTPClient(client *boxhttp.Client) Option {
	return func(c *Client) {
		c.transport = NewHTTPTransport(client)
	}
}

// WithLogger sets a custom logger for request events.
// If not set, no logging will occur.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithLoggingEnabled enables logging using the default Go log package.
func WithLoggingEnabled() Option {
	return func(c *Client) {
		c.logger = log.Default()
	}
}

// New creates a Client.
//
// Parameters:
//   - cfg: Base URL, initial token and mode flags
//   - opts: Optional configuration options (WithTransport, WithHTTPClient, WithLogger, WithLoggingEnabled)
//
// Without WithTransport or WithHTTPClient, requests go through a default
// boxhttp client with a 30s timeout.
func New(cfg Config, opts ...Option) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseAPIURL:     baseURL,
		noRequestMode:  cfg.NoRequestMode,
		skipValidation: cfg.SkipValidation,
		simpleMode:     cfg.SimpleMode,
	}
	c.storedToken, c.hasStoredToken = Resolve(cfg.AccessToken, false)

	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		c.transport = NewHTTPTransport(nil)
	}

	return c
}

// BaseURL returns the API root that paths are appended to.
func (c *Client) BaseURL() string {
	return c.baseAPIURL
}

// NoRequestMode reports whether MakeRequest returns options instead of dispatching.
func (c *Client) NoRequestMode() bool {
	return c.noRequestMode
}

// SkipValidation reports the flag for resource managers.
func (c *Client) SkipValidation() bool {
	return c.skipValidation
}

// SimpleMode reports the flag for resource managers.
func (c *Client) SimpleMode() bool {
	return c.simpleMode
}

// AccessToken returns the stored token and whether one is stored.
// The string may be empty while the boolean is true if SetAccessToken was
// given an input that did not resolve.
func (c *Client) AccessToken() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.storedToken, c.hasStoredToken
}

// SetAccessToken resolves token and stores it. The client is marked as
// holding a stored token even if token does not resolve, which suppresses
// per-request tokens until RemoveAccessToken is called.
func (c *Client) SetAccessToken(token TokenInput) {
	resolved, _ := Resolve(token, false)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.storedToken = resolved
	c.hasStoredToken = true
}

// RemoveAccessToken clears the stored token.
func (c *Client) RemoveAccessToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storedToken = ""
	c.hasStoredToken = false
}

// Normalize prepares opts for path in place and returns it. A nil opts is
// replaced by a fresh value.
//
// The URL defaults to the base URL joined with path, headers are rebuilt
// with the resolved Authorization entry, Fields moves into Params, and empty
// collections other than Body are dropped.
func (c *Client) Normalize(path string, opts *RequestOptions) *RequestOptions {
	if opts == nil {
		opts = &RequestOptions{}
	}

	if opts.URL == "" {
		opts.URL = c.baseAPIURL + path
	}
	opts.Headers = c.authorize(opts, "")
	applyFields(opts)
	elideEmpty(opts)

	return opts
}

// MakeRequest normalizes opts for path and dispatches it. In no-request mode
// the Result only carries the normalized options.
func (c *Client) MakeRequest(ctx context.Context, path string, opts *RequestOptions) (*Result, error) {
	opts = c.Normalize(path, opts)
	if c.noRequestMode {
		return &Result{Options: opts}, nil
	}
	return c.dispatch(ctx, opts)
}

// dispatch sends opts exactly once. Errors are returned unmodified.
func (c *Client) dispatch(ctx context.Context, opts *RequestOptions) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	method := opts.Method
	if method == "" {
		method = "GET"
	}
	c.logf("boxclient: dispatching %s %s", method, opts.URL)

	resp, err := c.transport.Dispatch(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Result{Options: opts, Response: resp}, nil
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
