package eutils

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/henrybloomingdale/medlit/internal/ncbi"
	"github.com/henrybloomingdale/medlit/internal/query"
)

// esearchResponse represents the raw JSON response from ESearch.
type esearchResponse struct {
	Result esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count            string   `json:"count"`
	RetMax           string   `json:"retmax"`
	RetStart         string   `json:"retstart"`
	IDList           []string `json:"idlist"`
	QueryTranslation string   `json:"querytranslation"`
}

// Search runs ESearch for q's compound boolean term and returns up to
// q.Limit() identifiers ordered by relevance.
func (c *Client) Search(ctx context.Context, q query.SearchQuery) (*SearchResult, error) {
	if q.IsZero() {
		return nil, query.ErrEmptyTerm
	}

	body, err := c.DoGet(ctx, "esearch.fcgi", q.ESearchParams())
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, ncbi.Malformed(c.BaseURL+"/esearch.fcgi", err)
	}

	count, _ := strconv.Atoi(resp.Result.Count)

	ids := resp.Result.IDList
	if ids == nil {
		ids = []string{}
	}
	if len(ids) > q.Limit() {
		ids = ids[:q.Limit()]
	}

	return &SearchResult{
		Count:            count,
		IDs:              ids,
		QueryTranslation: resp.Result.QueryTranslation,
	}, nil
}
