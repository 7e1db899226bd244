// Package mesh looks up Medical Subject Headings: prefix suggestions from the
// NLM terminology service, and full descriptor records from E-utilities.
package mesh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/henrybloomingdale/medlit/internal/ncbi"
)

const (
	// DefaultOrigin is the NLM MeSH terminology service.
	DefaultOrigin = "https://id.nlm.nih.gov/mesh"
	// MaxSuggestions caps a suggestion list.
	MaxSuggestions = 10
	// SuggestTimeout bounds a suggestion request.
	SuggestTimeout = 3 * time.Second
)

// ErrNotFound is returned by Describe when no descriptor matches.
var ErrNotFound = errors.New("MeSH descriptor not found")

// Descriptor is a MeSH descriptor record.
type Descriptor struct {
	UI          string   `json:"ui"`
	Name        string   `json:"name"`
	ScopeNote   string   `json:"scope_note"`
	TreeNumbers []string `json:"tree_numbers"`
	EntryTerms  []string `json:"entry_terms"`
	Annotation  string   `json:"annotation,omitempty"`
}

// Client provides MeSH lookups over a shared base client.
type Client struct {
	base   *ncbi.BaseClient
	origin string
}

// Option configures a Client.
type Option func(*Client)

// WithOrigin sets the terminology service origin.
func WithOrigin(origin string) Option {
	return func(c *Client) {
		if origin = strings.TrimSpace(origin); origin != "" {
			c.origin = strings.TrimRight(origin, "/")
		}
	}
}

// NewClient creates a MeSH client using an existing NCBI base client.
func NewClient(base *ncbi.BaseClient, opts ...Option) *Client {
	c := &Client{base: base, origin: DefaultOrigin}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type suggestion struct {
	Resource string `json:"resource"`
	Label    string `json:"label"`
}

// Suggest returns up to MaxSuggestions descriptor labels containing prefix.
// A blank prefix returns an empty list without a request.
func (c *Client) Suggest(ctx context.Context, prefix string) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []string{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, SuggestTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("label", prefix)
	params.Set("match", "contains")
	params.Set("limit", fmt.Sprint(MaxSuggestions))
	lookupURL := c.origin + "/lookup/descriptor?" + params.Encode()

	body, err := c.base.Get(ctx, lookupURL)
	if err != nil {
		return nil, fmt.Errorf("MeSH suggestion lookup failed: %w", err)
	}

	var items []suggestion
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, ncbi.Malformed(lookupURL, err)
	}

	labels := make([]string, 0, min(len(items), MaxSuggestions))
	for _, it := range items {
		if len(labels) == MaxSuggestions {
			break
		}
		if l := strings.TrimSpace(it.Label); l != "" {
			labels = append(labels, l)
		}
	}
	return labels, nil
}

// SuggestOrEmpty is Suggest with failures logged at debug level and
// reported as an empty list.
func (c *Client) SuggestOrEmpty(ctx context.Context, prefix string) []string {
	labels, err := c.Suggest(ctx, prefix)
	if err != nil {
		c.base.Logger.Debug("MeSH suggestion failed", slog.String("prefix", prefix), slog.Any("error", err))
		return []string{}
	}
	return labels
}

type meshSearchResponse struct {
	Result meshSearchResult `json:"esearchresult"`
}

type meshSearchResult struct {
	Count  string   `json:"count"`
	IDList []string `json:"idlist"`
}

// Describe searches E-utilities for term and returns its full descriptor.
func (c *Client) Describe(ctx context.Context, term string) (*Descriptor, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("MeSH term cannot be empty")
	}

	ids, err := c.searchMeSH(ctx, term)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, term)
	}

	return c.fetchMeSH(ctx, ids[0])
}

func (c *Client) searchMeSH(ctx context.Context, term string) ([]string, error) {
	params := url.Values{}
	params.Set("db", "mesh")
	params.Set("term", term)
	params.Set("retmode", "json")

	resp, err := c.base.DoGet(ctx, "esearch.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("MeSH search failed: %w", err)
	}

	var result meshSearchResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, ncbi.Malformed("esearch.fcgi", err)
	}
	return result.Result.IDList, nil
}

func (c *Client) fetchMeSH(ctx context.Context, uid string) (*Descriptor, error) {
	params := url.Values{}
	params.Set("db", "mesh")
	params.Set("id", uid)
	params.Set("rettype", "full")
	params.Set("retmode", "text")

	body, err := c.base.DoGet(ctx, "efetch.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("MeSH fetch failed: %w", err)
	}

	d := parseDescriptor(string(body))
	return &d, nil
}

// parseDescriptor reads the NCBI MeSH "KEY = value" full text format.
func parseDescriptor(text string) Descriptor {
	var d Descriptor
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "*NEWRECORD" {
			continue
		}

		key, value, ok := strings.Cut(line, " = ")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "MH":
			d.Name = value
		case "UI":
			d.UI = value
		case "MS":
			d.ScopeNote = value
		case "MN":
			d.TreeNumbers = append(d.TreeNumbers, value)
		case "AN":
			d.Annotation = value
		case "ENTRY", "PRINT ENTRY":
			// "Term|T047|..."
			term, _, _ := strings.Cut(value, "|")
			d.EntryTerms = append(d.EntryTerms, strings.TrimSpace(term))
		}
	}
	return d
}
