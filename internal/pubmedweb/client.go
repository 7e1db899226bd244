// Package pubmedweb reads the public PubMed web pages: the search results
// page (the HTML access mode) and an article page's reference list. All
// knowledge of the site's markup lives in this package.
package pubmedweb

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/henrybloomingdale/medlit/internal/article"
	"github.com/henrybloomingdale/medlit/internal/ncbi"
	"github.com/henrybloomingdale/medlit/internal/query"
)

// DefaultOrigin is the PubMed site.
const DefaultOrigin = article.PubMedOrigin

// Client fetches and parses PubMed web pages.
type Client struct {
	base   *ncbi.BaseClient
	origin string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithOrigin points the client at a different site origin (tests, mirrors).
func WithOrigin(origin string) ClientOption {
	return func(c *Client) { c.origin = strings.TrimRight(origin, "/") }
}

// NewClient creates a web client sharing base's transport.
func NewClient(base *ncbi.BaseClient, opts ...ClientOption) *Client {
	c := &Client{base: base, origin: DefaultOrigin}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search fetches the results page for q and parses up to q.Limit() records.
// Transport failures are returned; a page without result nodes is an empty,
// successful search.
func (c *Client) Search(ctx context.Context, q query.SearchQuery) ([]article.Record, error) {
	if q.IsZero() {
		return nil, query.ErrEmptyTerm
	}

	pageURL := q.HTMLURL(c.origin)
	body, err := c.base.Get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("search page request failed: %w", err)
	}

	records, err := ParseResults(bytes.NewReader(body), c.origin, q.Limit())
	if err != nil {
		return nil, ncbi.Malformed(pageURL, err)
	}
	return records, nil
}

// resolve joins a possibly relative href onto origin. Unparseable input
// yields "".
func resolve(origin, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	base, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
