// Package eutils provides the structured PubMed access mode: ESearch for a
// ranked identifier list and EFetch for one detail document per identifier.
package eutils

// SearchResult represents the result of an ESearch query.
type SearchResult struct {
	Count            int      `json:"count"`
	IDs              []string `json:"ids"`
	QueryTranslation string   `json:"query_translation"`
}
