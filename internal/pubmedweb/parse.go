package pubmedweb

import (
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/henrybloomingdale/medlit/internal/article"
)

// Selectors for the search results page.
const (
	resultSelector   = "article.full-docsum"
	titleSelector    = "a.docsum-title"
	authorsSelector  = "span.docsum-authors.full-authors"
	citationSelector = "span.docsum-journal-citation.full-journal-citation"
)

// dateRe prefers a full "YYYY Mon D" date and falls back to a bare year.
var dateRe = regexp.MustCompile(`\d{4} [A-Za-z]{3} \d{1,2}|\d{4}`)

var pmidPathRe = regexp.MustCompile(`^/?(\d+)/?$`)

// ParseResults extracts up to max records from a search results page.
// Missing nodes yield sentinels; the error is non-nil only when the document
// cannot be read.
func ParseResults(r io.Reader, origin string, max int) ([]article.Record, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	records := make([]article.Record, 0)
	doc.Find(resultSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if max > 0 && i >= max {
			return false
		}
		records = append(records, parseResult(s, origin))
		return true
	})
	return records, nil
}

func parseResult(s *goquery.Selection, origin string) article.Record {
	rec := article.New("")

	if a := s.Find(titleSelector).First(); a.Length() > 0 {
		rec.Title = article.Or(oneLine(a.Text()), article.NoTitle)
		href, _ := a.Attr("href")
		rec.Link = resolve(origin, href)
		rec.ID = articleID(a, href)
	}

	if au := s.Find(authorsSelector).First(); au.Length() > 0 {
		rec.Authors = article.Or(oneLine(au.Text()), article.NoAuthors)
	}

	if c := s.Find(citationSelector).First(); c.Length() > 0 {
		citation := oneLine(c.Text())
		rec.Date = ExtractDate(citation)
		rec.Journal = JournalName(citation)
	}

	return rec
}

// ExtractDate returns the first "YYYY Mon D" date or bare year in a journal
// citation string, or the date sentinel.
func ExtractDate(citation string) string {
	if m := dateRe.FindString(citation); m != "" {
		return m
	}
	return article.NoDate
}

// JournalName returns the citation text before its first period.
func JournalName(citation string) string {
	name, _, _ := strings.Cut(citation, ".")
	return article.Or(name, article.NoJournal)
}

func articleID(a *goquery.Selection, href string) string {
	if id, ok := a.Attr("data-article-id"); ok && strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}
	if m := pmidPathRe.FindStringSubmatch(strings.TrimSpace(href)); m != nil {
		return m[1]
	}
	return ""
}

// oneLine collapses runs of whitespace, as the result markup is indented.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
