// Package litsearch is the caller-facing literature search pipeline: build
// the request, fetch and parse records from the selected source, derive
// mirror links, and classify titles against the query.
//
// A Searcher holds no per-search state and is safe for concurrent use.
package litsearch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/henrybloomingdale/medlit/internal/article"
	"github.com/henrybloomingdale/medlit/internal/cite"
	"github.com/henrybloomingdale/medlit/internal/classify"
	"github.com/henrybloomingdale/medlit/internal/eutils"
	"github.com/henrybloomingdale/medlit/internal/fulltext"
	"github.com/henrybloomingdale/medlit/internal/mesh"
	"github.com/henrybloomingdale/medlit/internal/ncbi"
	"github.com/henrybloomingdale/medlit/internal/pubmedweb"
	"github.com/henrybloomingdale/medlit/internal/query"
)

// Result is the outcome of one successful search. A search that found
// nothing is a Result with empty buckets, never an error.
type Result struct {
	Query      string           `json:"query"`
	Source     string           `json:"source"`
	Policy     string           `json:"policy"`
	Total      int              `json:"total"`
	Matches    []article.Record `json:"matches"`
	Others     []article.Record `json:"others"`
	Unresolved []string         `json:"unresolved"`
	Failed     []Failure        `json:"failed"`
}

// Records returns matches followed by others.
func (r *Result) Records() []article.Record {
	out := make([]article.Record, 0, len(r.Matches)+len(r.Others))
	out = append(out, r.Matches...)
	return append(out, r.Others...)
}

// Empty reports whether the search produced no records.
func (r *Result) Empty() bool { return len(r.Matches)+len(r.Others) == 0 }

// Searcher runs searches and the auxiliary lookups around them.
type Searcher struct {
	web        *pubmedweb.Client
	structured StructuredSource
	sources    map[query.Mode]Source
	policy     classify.Policy
	resolver   *fulltext.Resolver
	mesh       *mesh.Client
	logger     *slog.Logger

	searchOrigin      string
	mirrorOrigin      string
	terminologyOrigin string
	concurrency       int
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithPolicy sets the title classifier. The default is classify.AllWords.
func WithPolicy(p classify.Policy) Option {
	return func(s *Searcher) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithConcurrency bounds the structured mode's detail fetches.
func WithConcurrency(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithSearchOrigin sets the PubMed site origin. Empty values are ignored.
func WithSearchOrigin(origin string) Option {
	return func(s *Searcher) {
		if origin != "" {
			s.searchOrigin = origin
		}
	}
}

// WithMirrorOrigin sets the full-text mirror origin.
func WithMirrorOrigin(origin string) Option {
	return func(s *Searcher) {
		if origin != "" {
			s.mirrorOrigin = origin
		}
	}
}

// WithTerminologyOrigin sets the MeSH terminology service origin.
func WithTerminologyOrigin(origin string) Option {
	return func(s *Searcher) {
		if origin != "" {
			s.terminologyOrigin = origin
		}
	}
}

// WithSource replaces the source used for mode.
func WithSource(mode query.Mode, src Source) Option {
	return func(s *Searcher) {
		if s.sources == nil {
			s.sources = map[query.Mode]Source{}
		}
		s.sources[mode] = src
	}
}

// WithLogger sets the logger. The default is the base client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Searcher) { s.logger = l }
}

// New builds a Searcher whose upstream clients all share base.
func New(base *ncbi.BaseClient, opts ...Option) *Searcher {
	s := &Searcher{
		policy:            classify.AllWords{},
		searchOrigin:      pubmedweb.DefaultOrigin,
		mirrorOrigin:      fulltext.DefaultMirror,
		terminologyOrigin: mesh.DefaultOrigin,
		concurrency:       DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = base.Logger
	}

	s.web = pubmedweb.NewClient(base, pubmedweb.WithOrigin(s.searchOrigin))
	s.structured = StructuredSource{
		Client:      eutils.NewClientWithBase(base),
		Concurrency: s.concurrency,
		Logger:      s.logger,
	}
	s.resolver = fulltext.NewResolver(base, fulltext.WithOrigin(s.mirrorOrigin), fulltext.WithLogger(s.logger))
	s.mesh = mesh.NewClient(base, mesh.WithOrigin(s.terminologyOrigin))

	defaults := map[query.Mode]Source{
		query.HTML:       WebSource{Client: s.web},
		query.Structured: s.structured,
	}
	for mode, src := range s.sources {
		defaults[mode] = src
	}
	s.sources = defaults
	return s
}

// Policy returns the classifier in use.
func (s *Searcher) Policy() classify.Policy { return s.policy }

// Search runs q against the source for its mode. The error is non-nil only
// when the primary request failed; it wraps *ncbi.TransportError in that
// case. Records whose detail document was missing are listed in Unresolved
// and kept out of both buckets.
func (s *Searcher) Search(ctx context.Context, q query.SearchQuery) (*Result, error) {
	return s.SearchWith(ctx, q, s.policy)
}

// SearchWith is Search with a classifier chosen for this call. A nil policy
// selects the Searcher's own.
func (s *Searcher) SearchWith(ctx context.Context, q query.SearchQuery, policy classify.Policy) (*Result, error) {
	if policy == nil {
		policy = s.policy
	}
	if q.IsZero() {
		return nil, query.ErrEmptyTerm
	}

	src, ok := s.sources[q.Mode()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, q.Mode())
	}

	s.logger.Debug("searching", slog.String("term", q.Term()), slog.String("source", src.Name()))

	batch, err := src.Fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s search failed: %w", src.Name(), err)
	}

	records := s.withMirrorLinks(batch.Records)
	buckets := classify.Partition(records, q.Term(), policy)

	res := &Result{
		Query:      q.Term(),
		Source:     src.Name(),
		Policy:     policy.Name(),
		Total:      batch.Total,
		Matches:    buckets.Matches,
		Others:     buckets.Others,
		Unresolved: batch.Unresolved,
		Failed:     batch.Failed,
	}

	s.logger.Debug("search complete",
		slog.Int("matches", len(res.Matches)),
		slog.Int("others", len(res.Others)),
		slog.Int("unresolved", len(res.Unresolved)),
		slog.Int("failed", len(res.Failed)),
	)
	return res, nil
}

// Fetch retrieves detail records for explicit PMIDs through the structured
// source.
func (s *Searcher) Fetch(ctx context.Context, ids ...string) (*Batch, error) {
	b, err := s.structured.FetchIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	b.Records = s.withMirrorLinks(b.Records)
	b.Total = len(b.Records)
	return b, nil
}

func (s *Searcher) withMirrorLinks(records []article.Record) []article.Record {
	out := make([]article.Record, len(records))
	for i, rec := range records {
		rec.FullTextLink = fulltext.Link(s.mirrorOrigin, rec)
		out[i] = rec
	}
	return out
}

// Citations formats rec in every style.
func (s *Searcher) Citations(rec article.Record) cite.Set {
	return cite.Format(rec)
}

// FullTextLink resolves the document embedded in rec's mirror page, or "".
func (s *Searcher) FullTextLink(ctx context.Context, rec article.Record) string {
	return s.resolver.Lookup(ctx, rec)
}

// References returns rec's bibliography, or an empty list.
func (s *Searcher) References(ctx context.Context, rec article.Record) []pubmedweb.Reference {
	return s.web.ReferencesOrEmpty(ctx, rec)
}

// Suggest returns MeSH descriptor labels containing prefix, or an empty list.
func (s *Searcher) Suggest(ctx context.Context, prefix string) []string {
	return s.mesh.SuggestOrEmpty(ctx, prefix)
}

// Describe returns the full MeSH descriptor for term.
func (s *Searcher) Describe(ctx context.Context, term string) (*mesh.Descriptor, error) {
	return s.mesh.Describe(ctx, term)
}
