// Package query turns a free-text term and optional filters into the request
// for one of the two PubMed access modes: the HTML search page, or the
// structured ESearch endpoint.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Limits on the number of records a single search may return.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// DefaultCountry is the country the Domestic and Foreign region filters refer to.
const DefaultCountry = "Korea"

var (
	// ErrEmptyTerm is returned for a blank search term. No request is built.
	ErrEmptyTerm = errors.New("search term cannot be empty")
	// ErrYearRange is returned when the lower year exceeds the upper year.
	ErrYearRange = errors.New("invalid year range")
	// ErrLimit is returned for a result cap outside 1..MaxLimit.
	ErrLimit = errors.New("result limit out of range")
)

// Mode selects the upstream access mode.
type Mode int

const (
	// Structured uses ESearch for identifiers, then one EFetch per identifier.
	Structured Mode = iota
	// HTML scrapes the PubMed search results page.
	HTML
)

func (m Mode) String() string {
	if m == HTML {
		return "html"
	}
	return "structured"
}

// ParseMode maps a flag or config value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "structured", "eutils":
		return Structured, nil
	case "html", "web":
		return HTML, nil
	}
	return Structured, fmt.Errorf("unknown search mode %q (want structured or html)", s)
}

// Region restricts results by author affiliation or place of publication.
type Region int

const (
	All Region = iota
	Domestic
	Foreign
)

func (r Region) String() string {
	switch r {
	case Domestic:
		return "domestic"
	case Foreign:
		return "foreign"
	}
	return "all"
}

// ParseRegion maps a flag or config value to a Region.
func ParseRegion(s string) (Region, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return All, nil
	case "domestic":
		return Domestic, nil
	case "foreign":
		return Foreign, nil
	}
	return All, fmt.Errorf("unknown region %q (want all, domestic or foreign)", s)
}

// YearRange is an inclusive publication-year filter.
type YearRange struct {
	From int
	To   int
}

// ParseYearRange accepts "2024" or "2020-2025".
func ParseYearRange(s string) (*YearRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.SplitN(s, "-", 2)
	from, err := parseYear(parts[0])
	if err != nil {
		return nil, err
	}
	to := from
	if len(parts) == 2 {
		if to, err = parseYear(parts[1]); err != nil {
			return nil, err
		}
	}
	if from > to {
		return nil, fmt.Errorf("%w: %d is after %d", ErrYearRange, from, to)
	}
	return &YearRange{From: from, To: to}, nil
}

func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) != 4 {
		return 0, fmt.Errorf("%w: %q is not a four-digit year", ErrYearRange, s)
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a four-digit year", ErrYearRange, s)
	}
	return y, nil
}

// SearchQuery is one validated search invocation. Build it with New.
type SearchQuery struct {
	term    string
	years   *YearRange
	region  Region
	country string
	mesh    string
	limit   int
	mode    Mode
}

// Option configures a SearchQuery.
type Option func(*SearchQuery)

// WithYears restricts the publication date to an inclusive year range.
func WithYears(from, to int) Option {
	return func(q *SearchQuery) { q.years = &YearRange{From: from, To: to} }
}

// WithYearRange is WithYears for an already parsed range; nil is a no-op.
func WithYearRange(yr *YearRange) Option {
	return func(q *SearchQuery) {
		if yr != nil {
			q.years = &YearRange{From: yr.From, To: yr.To}
		}
	}
}

// WithRegion sets the region filter.
func WithRegion(r Region) Option {
	return func(q *SearchQuery) { q.region = r }
}

// WithCountry sets the country Domestic and Foreign refer to.
func WithCountry(c string) Option {
	return func(q *SearchQuery) {
		if c = strings.TrimSpace(c); c != "" {
			q.country = c
		}
	}
}

// WithMeSH constrains results to a MeSH descriptor.
func WithMeSH(descriptor string) Option {
	return func(q *SearchQuery) { q.mesh = strings.TrimSpace(descriptor) }
}

// WithLimit caps the number of records.
func WithLimit(n int) Option {
	return func(q *SearchQuery) { q.limit = n }
}

// WithMode selects the upstream access mode.
func WithMode(m Mode) Option {
	return func(q *SearchQuery) { q.mode = m }
}

// New validates term and options and returns an immutable SearchQuery.
func New(term string, opts ...Option) (SearchQuery, error) {
	q := SearchQuery{
		term:    strings.TrimSpace(term),
		country: DefaultCountry,
		limit:   DefaultLimit,
	}
	if q.term == "" {
		return SearchQuery{}, ErrEmptyTerm
	}
	for _, opt := range opts {
		opt(&q)
	}
	if q.years != nil && q.years.From > q.years.To {
		return SearchQuery{}, fmt.Errorf("%w: %d is after %d", ErrYearRange, q.years.From, q.years.To)
	}
	if q.limit < 1 || q.limit > MaxLimit {
		return SearchQuery{}, fmt.Errorf("%w: %d (want 1..%d)", ErrLimit, q.limit, MaxLimit)
	}
	return q, nil
}

// Term returns the trimmed free-text term.
func (q SearchQuery) Term() string { return q.term }

// Limit returns the result cap.
func (q SearchQuery) Limit() int { return q.limit }

// Mode returns the access mode.
func (q SearchQuery) Mode() Mode { return q.mode }

// Region returns the region filter.
func (q SearchQuery) Region() Region { return q.region }

// Years returns a copy of the year range, or nil.
func (q SearchQuery) Years() *YearRange {
	if q.years == nil {
		return nil
	}
	yr := *q.years
	return &yr
}

// IsZero reports whether q was never successfully built.
func (q SearchQuery) IsZero() bool { return q.term == "" }

// HTMLURL returns the search page request: origin + "/?term=" + the
// percent-encoded term.
func (q SearchQuery) HTMLURL(origin string) string {
	return strings.TrimRight(origin, "/") + "/?term=" + strings.ReplaceAll(url.QueryEscape(q.term), "+", "%20")
}

// BooleanTerm returns the compound ESearch expression: the raw term AND-ed
// with the date, humans, journal-article, has-abstract, MeSH and region
// clauses that apply.
func (q SearchQuery) BooleanTerm() string {
	var b strings.Builder
	b.WriteString("(" + q.term + ")")

	if q.years != nil {
		fmt.Fprintf(&b, " AND %d:%d[pdat]", q.years.From, q.years.To)
	}
	b.WriteString(" AND humans[MeSH Terms]")
	b.WriteString(` AND "journal article"[Publication Type]`)
	b.WriteString(" AND hasabstract")

	if q.mesh != "" {
		fmt.Fprintf(&b, ` AND "%s"[MeSH Terms]`, q.mesh)
	}

	switch q.region {
	case Domestic:
		fmt.Fprintf(&b, " AND (%s[AD] OR %s[PL])", q.country, q.country)
	case Foreign:
		fmt.Fprintf(&b, " NOT (%s[AD] OR %s[PL])", q.country, q.country)
	}

	return b.String()
}

// ESearchParams returns the ESearch parameters for the structured mode.
func (q SearchQuery) ESearchParams() url.Values {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", q.BooleanTerm())
	params.Set("retmode", "json")
	params.Set("retmax", strconv.Itoa(q.limit))
	params.Set("sort", "relevance")
	return params
}
