package cite

import (
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/henrybloomingdale/medlit/internal/article"
)

// CSLItem is a bibliographic entry in CSL (Citation Style Language) form,
// readable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	PMID           string    `yaml:"PMID,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
}

// CSLName is a person's name in CSL form.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate is a date in CSL date-parts form.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// CSL writes records as a CSL-YAML list to w.
func CSL(w io.Writer, records []article.Record) error {
	items := make([]CSLItem, len(records))
	for i, r := range records {
		items[i] = ToCSLItem(r)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// ToCSLItem converts a record, leaving sentinel fields out.
func ToCSLItem(r article.Record) CSLItem {
	item := CSLItem{
		ID:   r.ID,
		Type: "article-journal",
		DOI:  r.DOI,
		PMID: r.ID,
		URL:  r.Link,
	}
	if item.ID == "" {
		item.ID = "record"
	}
	if r.HasTitle() {
		item.Title = clause(r.Title)
	}
	if r.Journal != article.NoJournal {
		item.ContainerTitle = r.Journal
	}
	if r.Abstract != article.NoAbstract {
		item.Abstract = r.Abstract
	}
	if r.Authors != article.NoAuthors {
		for _, a := range splitAuthors(r.Authors) {
			item.Author = append(item.Author, parseAuthorName(a))
		}
	}
	item.Issued = parseDate(r.Date)
	return item
}

func splitAuthors(s string) []string {
	s = clause(s)
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// parseAuthorName splits a "Last First" PubMed name: the first token is the
// family name, the rest is given. Single-token names (and collectives
// containing no initials) use the literal field.
func parseAuthorName(name string) CSLName {
	family, given, ok := strings.Cut(strings.TrimSpace(name), " ")
	if !ok {
		return CSLName{Literal: family}
	}
	return CSLName{Family: family, Given: strings.TrimSpace(given)}
}

var datePartsRe = regexp.MustCompile(`^(\d{4})(?:\s+([A-Za-z]{3})[A-Za-z]*(?:\s+(\d{1,2}))?)?`)

// parseDate reads "2021", "2021 Mar" or "2021 Mar 5" into date-parts.
func parseDate(s string) *CSLDate {
	m := datePartsRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil
	}
	year, _ := strconv.Atoi(m[1])
	parts := []int{year}
	if m[2] != "" {
		t, err := time.Parse("Jan", strings.ToUpper(m[2][:1])+strings.ToLower(m[2][1:]))
		if err == nil {
			parts = append(parts, int(t.Month()))
			if m[3] != "" {
				day, _ := strconv.Atoi(m[3])
				parts = append(parts, day)
			}
		}
	}
	return &CSLDate{DateParts: [][]int{parts}}
}
