// Package ncbi provides the shared HTTP transport for every upstream medlit talks to:
// the E-utilities endpoints, the PubMed web pages, the full-text mirror, and the
// MeSH terminology service. All clients embed or reference a BaseClient so they
// share pacing, common parameters, and response size guards.
package ncbi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the NCBI E-utilities base URL.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	// DefaultTool identifies this application to NCBI.
	DefaultTool = "medlit"
	// DefaultEmail is the contact email sent to NCBI.
	DefaultEmail = "medlit@users.noreply.github.com"
	// DefaultUserAgent is sent with every request. The PubMed web pages
	// serve a reduced document to unknown agents.
	DefaultUserAgent = "Mozilla/5.0"

	// Rate limits per NCBI policy.
	RateWithoutKey = 3  // requests per second without API key
	RateWithKey    = 10 // requests per second with API key

	// DefaultMaxResponseBytes is the maximum response body size (50 MB).
	DefaultMaxResponseBytes int64 = 50 * 1024 * 1024

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second
)

// BaseClient is a shared HTTP client with request pacing, common parameter
// injection, and response size guards. It never retries: every call is
// exactly one GET.
type BaseClient struct {
	BaseURL    string
	APIKey     string
	Tool       string
	Email      string
	UserAgent  string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	MaxBytes   int64
	Logger     *slog.Logger
}

// Option configures a BaseClient.
type Option func(*BaseClient)

// WithBaseURL sets the base URL for E-utilities requests.
func WithBaseURL(u string) Option {
	return func(c *BaseClient) { c.BaseURL = u }
}

// WithAPIKey sets the NCBI API key and adjusts the rate limit accordingly.
func WithAPIKey(key string) Option {
	return func(c *BaseClient) {
		c.APIKey = key
		if key != "" {
			c.Limiter = rate.NewLimiter(rate.Limit(RateWithKey), 1)
		}
	}
}

// WithTool sets the tool parameter for NCBI requests.
func WithTool(tool string) Option {
	return func(c *BaseClient) { c.Tool = tool }
}

// WithEmail sets the email parameter for NCBI requests.
func WithEmail(email string) Option {
	return func(c *BaseClient) { c.Email = email }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *BaseClient) { c.UserAgent = ua }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *BaseClient) { c.HTTPClient = hc }
}

// WithMaxResponseBytes sets the maximum allowed response body size.
func WithMaxResponseBytes(n int64) Option {
	return func(c *BaseClient) { c.MaxBytes = n }
}

// WithRateLimit overrides the request pacing. A non-positive rps disables it.
func WithRateLimit(rps float64) Option {
	return func(c *BaseClient) {
		if rps <= 0 {
			c.Limiter = nil
			return
		}
		c.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *BaseClient) { c.Logger = l }
}

// NewBaseClient creates a new base client with the given options.
func NewBaseClient(opts ...Option) *BaseClient {
	c := &BaseClient{
		BaseURL:   DefaultBaseURL,
		Tool:      DefaultTool,
		Email:     DefaultEmail,
		UserAgent: DefaultUserAgent,
		MaxBytes:  DefaultMaxResponseBytes,
		Limiter:   rate.NewLimiter(rate.Limit(RateWithoutKey), 1),
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// DoGet performs a paced GET against an E-utilities endpoint, adding the
// common NCBI parameters. Returns the response body.
func (c *BaseClient) DoGet(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	if c.APIKey != "" {
		params.Set("api_key", c.APIKey)
	}
	if c.Tool != "" {
		params.Set("tool", c.Tool)
	}
	if c.Email != "" {
		params.Set("email", c.Email)
	}

	u, err := url.JoinPath(c.BaseURL, endpoint)
	if err != nil {
		return nil, fmt.Errorf("building URL: %w", err)
	}
	return c.get(ctx, u+"?"+params.Encode(), true)
}

// Get performs a single GET against an absolute URL outside E-utilities.
// These hosts are not NCBI-paced.
func (c *BaseClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	return c.get(ctx, rawURL, false)
}

func (c *BaseClient) get(ctx context.Context, fullURL string, paced bool) ([]byte, error) {
	if paced && c.Limiter != nil {
		// Wait for a token (respects context cancellation).
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: fullURL, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	c.Logger.Debug("http get", "url", fullURL)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: fullURL, Err: fmt.Errorf("executing request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &TransportError{URL: fullURL, StatusCode: resp.StatusCode}
	}

	// Guard against unbounded reads: read up to MaxBytes+1 to detect oversized responses.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.MaxBytes+1))
	if err != nil {
		return nil, &TransportError{URL: fullURL, Err: fmt.Errorf("reading response: %w", err)}
	}
	if int64(len(body)) > c.MaxBytes {
		return nil, &TransportError{URL: fullURL, Err: fmt.Errorf("response exceeds maximum size of %d bytes", c.MaxBytes)}
	}

	return body, nil
}
