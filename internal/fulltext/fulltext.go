// Package fulltext derives and resolves full-text mirror links for a record.
// Every lookup is best effort: Lookup and Link never fail, they return "".
package fulltext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/henrybloomingdale/medlit/internal/article"
	"github.com/henrybloomingdale/medlit/internal/ncbi"
)

// DefaultMirror is the mirror origin used when none is configured.
const DefaultMirror = "https://sci-hub.se"

var (
	// ErrNoTarget is returned for a record with neither a link nor an ID.
	ErrNoTarget = errors.New("record has no link or identifier")
	// ErrNoDocument is returned when the mirror page embeds no document.
	ErrNoDocument = errors.New("mirror page has no embedded document")
)

// Link returns "<origin>/<link-or-id>" for rec, preferring the canonical
// link. It makes no request. Returns "" when rec has neither.
func Link(origin string, rec article.Record) string {
	target := strings.TrimSpace(rec.Link)
	if target == "" {
		target = strings.TrimSpace(rec.ID)
	}
	if target == "" {
		return ""
	}
	if origin == "" {
		origin = DefaultMirror
	}
	return strings.TrimRight(origin, "/") + "/" + target
}

// Result is the outcome of one resolution.
type Result struct {
	URL string
	Err error
}

// Resolver fetches mirror pages and pulls out the embedded document URL.
type Resolver struct {
	base   *ncbi.BaseClient
	origin string
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithOrigin sets the mirror origin.
func WithOrigin(origin string) Option {
	return func(r *Resolver) {
		if origin = strings.TrimSpace(origin); origin != "" {
			r.origin = strings.TrimRight(origin, "/")
		}
	}
}

// WithLogger sets the logger used by Lookup.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a resolver that shares base's transport.
func NewResolver(base *ncbi.BaseClient, opts ...Option) *Resolver {
	r := &Resolver{base: base, origin: DefaultMirror}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = base.Logger
	}
	return r
}

// Resolve GETs the mirror page for rec and returns the first iframe or embed
// source, resolved against the mirror origin.
func (r *Resolver) Resolve(ctx context.Context, rec article.Record) Result {
	pageURL := Link(r.origin, rec)
	if pageURL == "" {
		return Result{Err: ErrNoTarget}
	}

	body, err := r.base.Get(ctx, pageURL)
	if err != nil {
		return Result{Err: fmt.Errorf("mirror request failed: %w", err)}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Result{Err: ncbi.Malformed(pageURL, err)}
	}

	src := FrameSource(doc)
	if src == "" {
		return Result{Err: ErrNoDocument}
	}
	return Result{URL: absolute(r.origin, src)}
}

// Lookup is Resolve with failures logged at debug level and reported as "".
func (r *Resolver) Lookup(ctx context.Context, rec article.Record) string {
	res := r.Resolve(ctx, rec)
	if res.Err != nil {
		r.logger.Debug("full-text lookup failed", slog.String("id", rec.ID), slog.Any("error", res.Err))
		return ""
	}
	return res.URL
}

// FrameSource returns the src of the first iframe or embed element in doc.
func FrameSource(doc *goquery.Document) string {
	var src string
	doc.Find("iframe[src], embed[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("src")
		src = strings.TrimSpace(v)
		return src == ""
	})
	return src
}

// absolute resolves src against origin. Protocol-relative sources get https.
func absolute(origin, src string) string {
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	base, err := url.Parse(origin)
	if err != nil {
		return src
	}
	return base.ResolveReference(ref).String()
}
