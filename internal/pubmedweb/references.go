package pubmedweb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/henrybloomingdale/medlit/internal/article"
	"github.com/henrybloomingdale/medlit/internal/ncbi"
)

// ErrNoLink is returned when a record has neither a link nor a PMID.
var ErrNoLink = errors.New("record has no canonical link")

// Reference is one entry of an article's bibliography.
type Reference struct {
	Title string `json:"title"`
	Link  string `json:"link,omitempty"`
}

// referenceContainers are tried in order; the first present wins.
var referenceContainers = []string{"#references", "#top-references-list-1", ".references-list"}

// References fetches rec's canonical page and extracts its reference list.
// A page without a references container yields an empty list and no error.
func (c *Client) References(ctx context.Context, rec article.Record) ([]Reference, error) {
	pageURL := rec.Link
	if pageURL == "" {
		pageURL = article.CanonicalLink(rec.ID)
	}
	if pageURL == "" {
		return nil, ErrNoLink
	}

	body, err := c.base.Get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("article page request failed: %w", err)
	}

	refs, err := ParseReferences(bytes.NewReader(body), c.origin)
	if err != nil {
		return nil, ncbi.Malformed(pageURL, err)
	}
	return refs, nil
}

// ReferencesOrEmpty is References with every failure logged and swallowed.
func (c *Client) ReferencesOrEmpty(ctx context.Context, rec article.Record) []Reference {
	refs, err := c.References(ctx, rec)
	if err != nil {
		c.base.Logger.Debug("reference lookup failed", slog.String("id", rec.ID), slog.Any("error", err))
		return []Reference{}
	}
	return refs
}

// ParseReferences extracts the bibliography of an article page. Each list
// item yields the text before its first period and its first link.
func ParseReferences(r io.Reader, origin string) ([]Reference, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var container *goquery.Selection
	for _, sel := range referenceContainers {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			container = s
			break
		}
	}

	refs := make([]Reference, 0)
	if container == nil {
		return refs, nil
	}

	container.Find("li").Each(func(_ int, li *goquery.Selection) {
		text := oneLine(li.Text())
		if text == "" {
			return
		}
		title, _, _ := strings.Cut(text, ".")
		ref := Reference{Title: strings.TrimSpace(title)}
		if href, ok := li.Find("a[href]").First().Attr("href"); ok {
			ref.Link = resolve(origin, href)
		}
		refs = append(refs, ref)
	})
	return refs, nil
}
