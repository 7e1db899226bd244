package eutils

import (
	"github.com/henrybloomingdale/medlit/internal/ncbi"
)

const (
	// DefaultBaseURL is the NCBI E-utilities base URL.
	DefaultBaseURL = ncbi.DefaultBaseURL
)

// Client is an HTTP client for NCBI E-utilities.
// It embeds ncbi.BaseClient for shared pacing, common parameters,
// and response size guards.
type Client struct {
	*ncbi.BaseClient
}

// Option configures a Client (alias for ncbi.Option).
type Option = ncbi.Option

// Re-export ncbi options so callers need not import ncbi directly.
var (
	WithBaseURL    = ncbi.WithBaseURL
	WithAPIKey     = ncbi.WithAPIKey
	WithTool       = ncbi.WithTool
	WithEmail      = ncbi.WithEmail
	WithHTTPClient = ncbi.WithHTTPClient
	WithRateLimit  = ncbi.WithRateLimit
)

// NewClient creates a new E-utilities client with the given options.
func NewClient(opts ...Option) *Client {
	return &Client{BaseClient: ncbi.NewBaseClient(opts...)}
}

// NewClientWithBase creates a new E-utilities client using an existing base client.
// Use this to share the rate limiter with the other upstream clients.
func NewClientWithBase(base *ncbi.BaseClient) *Client {
	return &Client{BaseClient: base}
}
