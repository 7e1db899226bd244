package eutils

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/henrybloomingdale/medlit/internal/article"
	"github.com/henrybloomingdale/medlit/internal/ncbi"
)

// XML structures for parsing PubMed EFetch responses.

// pubmedArticleSet accepts any root element so that an NCBI error document
// decodes to an empty set.
type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation   medlineCitation `xml:"MedlineCitation"`
	PubmedData pubmedData      `xml:"PubmedData"`
}

type medlineCitation struct {
	PMID    string     `xml:"PMID"`
	Article xmlArticle `xml:"Article"`
}

type xmlArticle struct {
	Journal      xmlJournal    `xml:"Journal"`
	ArticleTitle xmlText       `xml:"ArticleTitle"`
	Abstract     *xmlAbstract  `xml:"Abstract"`
	AuthorList   xmlAuthorList `xml:"AuthorList"`
}

type xmlJournal struct {
	JournalIssue    xmlJournalIssue `xml:"JournalIssue"`
	Title           string          `xml:"Title"`
	ISOAbbreviation string          `xml:"ISOAbbreviation"`
}

type xmlJournalIssue struct {
	PubDate xmlPubDate `xml:"PubDate"`
}

type xmlPubDate struct {
	Year        string `xml:"Year"`
	Month       string `xml:"Month"`
	Day         string `xml:"Day"`
	MedlineDate string `xml:"MedlineDate"`
}

type xmlAbstract struct {
	AbstractTexts []xmlAbstractText `xml:"AbstractText"`
}

type xmlAuthorList struct {
	Authors []xmlAuthor `xml:"Author"`
}

type xmlAuthor struct {
	LastName string `xml:"LastName"`
	ForeName string `xml:"ForeName"`
}

type pubmedData struct {
	ArticleIDList xmlArticleIDList `xml:"ArticleIdList"`
}

type xmlArticleIDList struct {
	ArticleIDs []xmlArticleID `xml:"ArticleId"`
}

type xmlArticleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}

// xmlText collects all character data of an element, including text inside
// inline markup such as <i> or <sup>.
type xmlText string

func (t *xmlText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	s, err := innerText(d)
	*t = xmlText(s)
	return err
}

type xmlAbstractText struct {
	Label string
	Text  string
}

func (a *xmlAbstractText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "Label" {
			a.Label = attr.Value
		}
	}
	s, err := innerText(d)
	a.Text = s
	return err
}

// innerText consumes tokens up to the end of the current element.
func innerText(d *xml.Decoder) (string, error) {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return "", err
		}
		switch tt := tok.(type) {
		case xml.CharData:
			b.Write(tt)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return strings.Join(strings.Fields(b.String()), " "), nil
}

// FetchRecord retrieves and parses the detail document for one PMID. A
// document with no matching record yields article.NotFound(pmid) and a nil
// error; only transport failures are returned as errors.
func (c *Client) FetchRecord(ctx context.Context, pmid string) (article.Record, error) {
	pmid = strings.TrimSpace(pmid)
	if pmid == "" {
		return article.Record{}, fmt.Errorf("PMID cannot be empty")
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", pmid)
	params.Set("retmode", "xml")

	body, err := c.DoGet(ctx, "efetch.fcgi", params)
	if err != nil {
		return article.Record{}, fmt.Errorf("fetch request for %s failed: %w", pmid, err)
	}

	rec, err := ParseRecord(body, pmid)
	if err != nil {
		return article.Record{}, ncbi.Malformed(c.BaseURL+"/efetch.fcgi?id="+pmid, err)
	}
	return rec, nil
}

// ParseRecord extracts a record from an EFetch detail document. Missing
// fields degrade to sentinels. An empty body or a document without a
// PubmedArticle is the "not found" record for pmid. The error is non-nil
// only for XML that cannot be decoded.
func ParseRecord(data []byte, pmid string) (article.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return article.NotFound(pmid), nil
	}

	var set pubmedArticleSet
	if err := xml.Unmarshal(data, &set); err != nil {
		if errors.Is(err, io.EOF) {
			return article.NotFound(pmid), nil
		}
		return article.Record{}, fmt.Errorf("parsing PubMed XML: %w", err)
	}
	if len(set.Articles) == 0 {
		return article.NotFound(pmid), nil
	}

	return convertArticle(set.Articles[0], pmid), nil
}

func convertArticle(pa pubmedArticle, requested string) article.Record {
	mc := pa.Citation
	xa := mc.Article

	id := strings.TrimSpace(mc.PMID)
	if id == "" {
		id = requested
	}

	rec := article.New(id)
	rec.Title = article.Or(string(xa.ArticleTitle), article.NoTitle)
	rec.Authors = article.Or(joinAuthors(xa.AuthorList.Authors), article.NoAuthors)
	rec.Journal = article.Or(xa.Journal.Title, article.NoJournal)
	rec.Date = article.Or(pubDate(xa.Journal.JournalIssue.PubDate), article.NoDate)
	rec.Abstract = article.Or(abstractText(xa.Abstract), article.NoAbstract)
	rec.Link = article.CanonicalLink(id)

	for _, aid := range pa.PubmedData.ArticleIDList.ArticleIDs {
		if aid.IDType == "doi" {
			rec.DOI = strings.TrimSpace(aid.Value)
		}
	}

	return rec
}

// joinAuthors renders "Last First" pairs joined by ", ". An author missing
// either name part is skipped rather than emitted partially.
func joinAuthors(authors []xmlAuthor) string {
	names := make([]string, 0, len(authors))
	for _, au := range authors {
		last := strings.TrimSpace(au.LastName)
		fore := strings.TrimSpace(au.ForeName)
		if last == "" || fore == "" {
			continue
		}
		names = append(names, last+" "+fore)
	}
	return strings.Join(names, ", ")
}

func pubDate(d xmlPubDate) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{d.Year, d.Month, d.Day} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(d.MedlineDate)
	}
	return strings.Join(parts, " ")
}

func abstractText(a *xmlAbstract) string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, len(a.AbstractTexts))
	for _, s := range a.AbstractTexts {
		if s.Text == "" {
			continue
		}
		if s.Label != "" {
			parts = append(parts, s.Label+": "+s.Text)
		} else {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}
