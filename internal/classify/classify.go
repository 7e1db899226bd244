// Package classify partitions search results into records whose title
// matches the query and everything else. The matching rule is a named
// Policy so callers choose it explicitly.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/henrybloomingdale/medlit/internal/article"
)

// Policy decides whether a title matches a query.
type Policy interface {
	Name() string
	Match(title, query string) bool
}

// Buckets is the result of Partition. Every input record lands in exactly
// one bucket, in input order.
type Buckets struct {
	Matches []article.Record `json:"matches"`
	Others  []article.Record `json:"others"`
}

// Len returns the total number of records in both buckets.
func (b Buckets) Len() int { return len(b.Matches) + len(b.Others) }

// Partition splits records by p. A nil policy means AllWords.
func Partition(records []article.Record, query string, p Policy) Buckets {
	if p == nil {
		p = AllWords{}
	}
	b := Buckets{
		Matches: make([]article.Record, 0, len(records)),
		Others:  make([]article.Record, 0),
	}
	for _, rec := range records {
		if p.Match(rec.Title, query) {
			b.Matches = append(b.Matches, rec)
		} else {
			b.Others = append(b.Others, rec)
		}
	}
	return b
}

// Policy names accepted by ByName.
const (
	NameAllWords  = "all-words"
	NameSubstring = "substring"
	NameRegex     = "regex"
)

// ByName returns the policy registered under name. The empty string
// selects AllWords.
func ByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameAllWords:
		return AllWords{}, nil
	case NameSubstring:
		return Substring{}, nil
	case NameRegex:
		return SubstringRegex{}, nil
	}
	return nil, fmt.Errorf("unknown classifier policy %q (want %s, %s or %s)", name, NameAllWords, NameSubstring, NameRegex)
}

// fold builds a Caser per call; a Caser may carry state and must not be
// shared between goroutines.
func fold(s string) string {
	return cases.Fold().String(s)
}

// AllWords matches when every whitespace-separated token of the query
// appears in the title, ignoring case. An empty query matches everything.
type AllWords struct{}

func (AllWords) Name() string { return NameAllWords }

func (AllWords) Match(title, query string) bool {
	t := fold(title)
	for _, w := range strings.Fields(fold(query)) {
		if !strings.Contains(t, w) {
			return false
		}
	}
	return true
}

// Substring matches when the whole trimmed query appears in the title,
// ignoring case.
type Substring struct{}

func (Substring) Name() string { return NameSubstring }

func (Substring) Match(title, query string) bool {
	return strings.Contains(fold(title), fold(strings.TrimSpace(query)))
}

// SubstringRegex treats the query as a case-insensitive regular expression.
// A query that does not compile is matched literally, as Substring does.
type SubstringRegex struct{}

func (SubstringRegex) Name() string { return NameRegex }

func (SubstringRegex) Match(title, query string) bool {
	re, err := regexp.Compile("(?i)" + strings.TrimSpace(query))
	if err != nil {
		return Substring{}.Match(title, query)
	}
	return re.MatchString(title)
}
