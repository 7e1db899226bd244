package litsearch

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/henrybloomingdale/medlit/internal/article"
	"github.com/henrybloomingdale/medlit/internal/eutils"
	"github.com/henrybloomingdale/medlit/internal/pubmedweb"
	"github.com/henrybloomingdale/medlit/internal/query"
)

// DefaultConcurrency bounds the detail fetches in flight for one search.
const DefaultConcurrency = 4

// Source retrieves the records for a query from one upstream access mode.
// An error means the primary request failed; per-record problems are
// reported in the Batch.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q query.SearchQuery) (*Batch, error)
}

// Failure records a detail fetch that did not complete.
type Failure struct {
	ID     string `json:"id"`
	Reason string `json:"error"`
	Err    error  `json:"-"`
}

// Batch is what a Source produced for one query.
type Batch struct {
	Records    []article.Record
	Unresolved []string
	Failed     []Failure
	// Total is the upstream hit count when the source reports one.
	Total int
}

func newBatch() *Batch {
	return &Batch{
		Records:    []article.Record{},
		Unresolved: []string{},
		Failed:     []Failure{},
	}
}

// WebSource scrapes the PubMed search results page.
type WebSource struct {
	Client *pubmedweb.Client
}

func (WebSource) Name() string { return "web" }

func (s WebSource) Fetch(ctx context.Context, q query.SearchQuery) (*Batch, error) {
	records, err := s.Client.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	b := newBatch()
	b.Records = records
	b.Total = len(records)
	return b, nil
}

// StructuredSource runs ESearch, then one EFetch per identifier under a
// bounded errgroup.
type StructuredSource struct {
	Client      *eutils.Client
	Concurrency int
	Logger      *slog.Logger
}

func (StructuredSource) Name() string { return "eutils" }

func (s StructuredSource) Fetch(ctx context.Context, q query.SearchQuery) (*Batch, error) {
	res, err := s.Client.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	b, err := s.FetchIDs(ctx, res.IDs)
	if err != nil {
		return nil, err
	}
	b.Total = res.Count
	return b, nil
}

// FetchIDs fetches one detail document per identifier. Each identifier owns
// its result slot, so a failure never affects the others and the output
// keeps identifier order. Only cancellation of ctx is returned as an error.
func (s StructuredSource) FetchIDs(ctx context.Context, ids []string) (*Batch, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := s.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	type slot struct {
		rec article.Record
		err error
	}
	slots := make([]slot, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				slots[i].err = err
				return nil
			}
			rec, err := s.Client.FetchRecord(gctx, id)
			slots[i] = slot{rec: rec, err: err}
			if err != nil {
				logger.Debug("detail fetch failed", slog.String("id", id), slog.Any("error", err))
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := newBatch()
	for i, sl := range slots {
		switch {
		case sl.err != nil:
			b.Failed = append(b.Failed, Failure{ID: ids[i], Reason: sl.err.Error(), Err: sl.err})
		case !sl.rec.Found:
			b.Unresolved = append(b.Unresolved, ids[i])
		default:
			b.Records = append(b.Records, sl.rec)
		}
	}
	return b, nil
}

// ErrNoSource is returned when no source is registered for a query's mode.
var ErrNoSource = errors.New("no source for search mode")
