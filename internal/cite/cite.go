// Package cite formats article records as Vancouver, APA, and MLA reference
// strings, and as CSL-YAML for reference managers.
package cite

import (
	"fmt"
	"strings"

	"github.com/henrybloomingdale/medlit/internal/article"
)

// Style names a citation style.
type Style string

const (
	Vancouver Style = "vancouver"
	APA       Style = "apa"
	MLA       Style = "mla"
)

// Styles lists every supported style in display order.
var Styles = []Style{Vancouver, APA, MLA}

// ParseStyle maps a flag value to a Style. The empty string selects Vancouver.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case "", Vancouver:
		return Vancouver, nil
	case APA:
		return APA, nil
	case MLA:
		return MLA, nil
	}
	return "", fmt.Errorf("unknown citation style %q (want vancouver, apa or mla)", s)
}

// Label returns the display name of the style.
func (s Style) Label() string {
	switch s {
	case APA:
		return "APA"
	case MLA:
		return "MLA"
	}
	return "Vancouver"
}

// Set holds one record's citation in every style.
type Set struct {
	Vancouver string `json:"vancouver"`
	APA       string `json:"apa"`
	MLA       string `json:"mla"`
}

// Get returns the citation for style s.
func (cs Set) Get(s Style) string {
	switch s {
	case APA:
		return cs.APA
	case MLA:
		return cs.MLA
	}
	return cs.Vancouver
}

// Format computes every style for rec.
func Format(rec article.Record) Set {
	return Set{
		Vancouver: FormatVancouver(rec),
		APA:       FormatAPA(rec),
		MLA:       FormatMLA(rec),
	}
}

// FormatStyle renders rec in a single style.
func FormatStyle(rec article.Record, s Style) string {
	switch s {
	case APA:
		return FormatAPA(rec)
	case MLA:
		return FormatMLA(rec)
	}
	return FormatVancouver(rec)
}

// FormatVancouver renders "{authors}. {title}. {journal}. {year}.".
func FormatVancouver(rec article.Record) string {
	return fmt.Sprintf("%s. %s. %s. %s.",
		clause(rec.Authors), clause(rec.Title), clause(rec.Journal), clause(rec.Date))
}

// VancouverWithPMID is the Vancouver form followed by " PMID: {id}." when the
// record carries an identifier.
func VancouverWithPMID(rec article.Record) string {
	c := FormatVancouver(rec)
	if id := strings.TrimSpace(rec.ID); id != "" {
		c += " PMID: " + id + "."
	}
	return c
}

// FormatAPA renders "{authors} ({year}). {title}. {journal}.".
func FormatAPA(rec article.Record) string {
	return fmt.Sprintf("%s (%s). %s. %s.",
		clause(rec.Authors), clause(rec.Date), clause(rec.Title), clause(rec.Journal))
}

// FormatMLA renders "{authors}. \"{title}.\" {journal}, {year}.".
func FormatMLA(rec article.Record) string {
	return fmt.Sprintf("%s. \"%s.\" %s, %s.",
		clause(rec.Authors), clause(rec.Title), clause(rec.Journal), clause(rec.Date))
}

// clause trims a field and drops one trailing period so the template's own
// punctuation is not doubled.
func clause(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), ".")
}
