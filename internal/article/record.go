// Package article defines the bibliographic record shared by every stage of a
// literature search, along with the sentinel values that stand in for fields
// the upstream document did not provide.
package article

import (
	"regexp"
	"strings"
)

// Sentinels substituted for fields that could not be extracted. Renderers
// never need to branch on a missing value.
const (
	NoTitle    = "No title"
	NoAuthors  = "No authors"
	NoJournal  = "No journal"
	NoDate     = "No date"
	NoAbstract = "No abstract available"
)

// PubMedOrigin is the canonical site used to build record links.
const PubMedOrigin = "https://pubmed.ncbi.nlm.nih.gov"

// Record is one bibliographic entry returned by a literature search.
type Record struct {
	ID           string `json:"id,omitempty"`
	Title        string `json:"title"`
	Authors      string `json:"authors"`
	Journal      string `json:"journal"`
	Date         string `json:"date"`
	Abstract     string `json:"abstract"`
	Link         string `json:"link"`
	DOI          string `json:"doi,omitempty"`
	FullTextLink string `json:"full_text_link,omitempty"`

	// Found is false for the placeholder returned when a detail fetch
	// had no matching record.
	Found bool `json:"-"`
}

// New returns a record for id with every field set to its sentinel.
func New(id string) Record {
	return Record{
		ID:       id,
		Title:    NoTitle,
		Authors:  NoAuthors,
		Journal:  NoJournal,
		Date:     NoDate,
		Abstract: NoAbstract,
		Found:    true,
	}
}

// NotFound returns the defined "not found" record for id.
func NotFound(id string) Record {
	r := New(id)
	r.Found = false
	return r
}

// Or returns v trimmed, or sentinel when v is blank.
func Or(v, sentinel string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return sentinel
	}
	return v
}

// CanonicalLink returns the PubMed page for a PMID, or "" when pmid is empty.
func CanonicalLink(pmid string) string {
	pmid = strings.TrimSpace(pmid)
	if pmid == "" {
		return ""
	}
	return PubMedOrigin + "/" + pmid + "/"
}

var leadingYear = regexp.MustCompile(`^\d{4}`)

// Year returns the leading four-digit year of the record's date, or "".
func (r Record) Year() string {
	return leadingYear.FindString(strings.TrimSpace(r.Date))
}

// HasTitle reports whether the title was extracted.
func (r Record) HasTitle() bool {
	return r.Title != "" && r.Title != NoTitle
}
