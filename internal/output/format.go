// Package output renders search results, records, and lookups for the
// terminal (plain, human, Markdown, JSON) and exports them to files for
// reference managers (RIS, BibTeX, CSL-YAML, CSV).
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/henrybloomingdale/medlit/internal/article"
	"github.com/henrybloomingdale/medlit/internal/cite"
	"github.com/henrybloomingdale/medlit/internal/litsearch"
	"github.com/henrybloomingdale/medlit/internal/mesh"
	"github.com/henrybloomingdale/medlit/internal/pubmedweb"
)

// OutputConfig controls which output mode(s) are active.
type OutputConfig struct {
	JSON     bool       // Structured JSON
	Human    bool       // Rich terminal output with color
	Markdown bool       // Markdown document
	Full     bool       // Show full abstract (human mode)
	Style    cite.Style // Citation style shown next to each record
	CSVFile  string     // Export records to this CSV path (works alongside any mode)
	RISFile  string     // Export records to this RIS path (works alongside any mode)
	CSLFile  string     // Export records to this CSL-YAML path (works alongside any mode)
	BibFile  string     // Export records to this BibTeX path (works alongside any mode)
}

// FormatSearchResult writes a classified search result.
func FormatSearchResult(w io.Writer, res *litsearch.Result, cfg OutputConfig) error {
	if err := Export(res.Records(), cfg); err != nil {
		return err
	}
	switch {
	case cfg.JSON:
		return writeJSON(w, res)
	case cfg.Markdown:
		return formatSearchMarkdown(w, res, cfg)
	case cfg.Human:
		return formatSearchHuman(w, res, cfg)
	}
	return formatSearchPlain(w, res, cfg)
}

// FormatRecords writes record details, as for an explicit fetch.
func FormatRecords(w io.Writer, records []article.Record, cfg OutputConfig) error {
	if err := Export(records, cfg); err != nil {
		return err
	}
	switch {
	case cfg.JSON:
		return writeJSON(w, records)
	case cfg.Markdown:
		return formatRecordsMarkdown(w, records, cfg)
	case cfg.Human:
		return formatRecordsHuman(w, records, cfg)
	}
	return formatRecordsPlain(w, records, cfg)
}

// FormatCitations writes rec's citation in every style.
func FormatCitations(w io.Writer, rec article.Record, cfg OutputConfig) error {
	set := cite.Format(rec)
	if cfg.JSON {
		return writeJSON(w, set)
	}
	for _, s := range cite.Styles {
		label := s.Label() + ":"
		if cfg.Human {
			label = labelStyle.Render(label)
		}
		fmt.Fprintf(w, "%s %s\n", label, set.Get(s))
	}
	if rec.ID != "" {
		fmt.Fprintf(w, "\n%s\n", cite.VancouverWithPMID(rec))
	}
	return nil
}

// FormatReferences writes an article's reference list.
func FormatReferences(w io.Writer, pmid string, refs []pubmedweb.Reference, cfg OutputConfig) error {
	if cfg.JSON {
		return writeJSON(w, refs)
	}
	if cfg.Human {
		return formatReferencesHuman(w, pmid, refs)
	}
	if len(refs) == 0 {
		fmt.Fprintf(w, "No references found for PMID %s.\n", pmid)
		return nil
	}
	fmt.Fprintf(w, "References for PMID %s (%d results):\n\n", pmid, len(refs))
	for i, r := range refs {
		fmt.Fprintf(w, "  %d. %s\n", i+1, r.Title)
		if r.Link != "" {
			fmt.Fprintf(w, "     %s\n", r.Link)
		}
	}
	return nil
}

// FormatFullText writes a resolved mirror document link.
func FormatFullText(w io.Writer, rec article.Record, link string, cfg OutputConfig) error {
	if cfg.JSON {
		return writeJSON(w, map[string]string{"id": rec.ID, "mirror": rec.FullTextLink, "document": link})
	}
	if link == "" {
		fmt.Fprintf(w, "No embedded document found for PMID %s.\n", rec.ID)
		if rec.FullTextLink != "" {
			fmt.Fprintf(w, "Mirror page: %s\n", rec.FullTextLink)
		}
		return nil
	}
	fmt.Fprintln(w, link)
	return nil
}

// FormatSuggestions writes MeSH descriptor suggestions.
func FormatSuggestions(w io.Writer, prefix string, labels []string, cfg OutputConfig) error {
	if cfg.JSON {
		return writeJSON(w, labels)
	}
	if len(labels) == 0 {
		fmt.Fprintf(w, "No MeSH suggestions for %q.\n", prefix)
		return nil
	}
	for _, l := range labels {
		if cfg.Human {
			l = yellow.Render(l)
		}
		fmt.Fprintf(w, "  %s\n", l)
	}
	return nil
}

// FormatDescriptor writes a MeSH descriptor record.
func FormatDescriptor(w io.Writer, d *mesh.Descriptor, cfg OutputConfig) error {
	if cfg.JSON {
		return writeJSON(w, d)
	}
	if cfg.Human {
		return formatDescriptorHuman(w, d)
	}
	return formatDescriptorPlain(w, d)
}

// Export writes records to every file export named in cfg.
func Export(records []article.Record, cfg OutputConfig) error {
	if cfg.CSVFile != "" {
		if err := writeRecordsCSV(cfg.CSVFile, records); err != nil {
			return fmt.Errorf("CSV export failed: %w", err)
		}
	}
	if cfg.RISFile != "" {
		if err := writeRecordsRIS(cfg.RISFile, records); err != nil {
			return fmt.Errorf("RIS export failed: %w", err)
		}
	}
	if cfg.CSLFile != "" {
		if err := writeRecordsCSL(cfg.CSLFile, records); err != nil {
			return fmt.Errorf("CSL export failed: %w", err)
		}
	}
	if cfg.BibFile != "" {
		if err := writeRecordsBibTeX(cfg.BibFile, records); err != nil {
			return fmt.Errorf("BibTeX export failed: %w", err)
		}
	}
	return nil
}

// --- Plain text formatters (default) ---

func formatSearchPlain(w io.Writer, res *litsearch.Result, cfg OutputConfig) error {
	if res.Empty() {
		fmt.Fprintln(w, "No results found.")
		writeGapsPlain(w, res)
		return nil
	}

	if len(res.Matches) > 0 {
		fmt.Fprintf(w, "Articles with your keywords in the title (%d)\n\n", len(res.Matches))
		writeRecordListPlain(w, res.Matches, cfg)
	} else {
		fmt.Fprintln(w, "No results found with your keywords in the title.")
	}

	if len(res.Others) > 0 {
		fmt.Fprintf(w, "\nOther relevant articles (%d)\n\n", len(res.Others))
		writeRecordListPlain(w, res.Others, cfg)
	}

	writeGapsPlain(w, res)
	return nil
}

func writeRecordListPlain(w io.Writer, records []article.Record, cfg OutputConfig) {
	for i, r := range records {
		fmt.Fprintf(w, "%d. %s\n", i+1, r.Title)
		fmt.Fprintf(w, "   Authors: %s\n", r.Authors)
		fmt.Fprintf(w, "   Journal: %s\n", r.Journal)
		fmt.Fprintf(w, "   Publication Date: %s\n", r.Date)
		fmt.Fprintf(w, "   Citation (%s): %s\n", cfg.Style.Label(), cite.FormatStyle(r, cfg.Style))
		if r.Link != "" {
			fmt.Fprintf(w, "   PubMed: %s\n", r.Link)
		}
		if r.FullTextLink != "" {
			fmt.Fprintf(w, "   Full text: %s\n", r.FullTextLink)
		}
	}
}

func writeGapsPlain(w io.Writer, res *litsearch.Result) {
	if n := len(res.Unresolved); n > 0 {
		fmt.Fprintf(w, "\n%d record(s) could not be found: %s\n", n, strings.Join(res.Unresolved, ", "))
	}
	if n := len(res.Failed); n > 0 {
		ids := make([]string, n)
		for i, f := range res.Failed {
			ids[i] = f.ID
		}
		fmt.Fprintf(w, "%d record(s) failed to load: %s\n", n, strings.Join(ids, ", "))
	}
}

func formatRecordsPlain(w io.Writer, records []article.Record, cfg OutputConfig) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No articles found.")
		return nil
	}

	for i, r := range records {
		if i > 0 {
			fmt.Fprintf(w, "\n%s\n\n", strings.Repeat("─", 80))
		}

		fmt.Fprintf(w, "PMID: %s\n", r.ID)
		fmt.Fprintf(w, "Title: %s\n", r.Title)
		fmt.Fprintf(w, "Authors: %s\n", r.Authors)
		fmt.Fprintf(w, "Journal: %s (%s)\n", r.Journal, r.Date)
		if r.DOI != "" {
			fmt.Fprintf(w, "DOI: %s\n", r.DOI)
		}
		if r.Link != "" {
			fmt.Fprintf(w, "Link: %s\n", r.Link)
		}
		fmt.Fprintf(w, "Citation (%s): %s\n", cfg.Style.Label(), cite.FormatStyle(r, cfg.Style))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Abstract:")
		fmt.Fprintln(w, r.Abstract)
	}

	return nil
}

func formatDescriptorPlain(w io.Writer, d *mesh.Descriptor) error {
	fmt.Fprintf(w, "MeSH Term: %s\n", d.Name)
	fmt.Fprintf(w, "UI: %s\n", d.UI)

	if len(d.TreeNumbers) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tree Numbers:")
		for _, tn := range d.TreeNumbers {
			fmt.Fprintf(w, "  %s\n", tn)
		}
	}

	if d.ScopeNote != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Scope Note:")
		fmt.Fprintf(w, "  %s\n", d.ScopeNote)
	}

	if len(d.EntryTerms) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Entry Terms (synonyms):")
		for _, et := range d.EntryTerms {
			fmt.Fprintf(w, "  - %s\n", et)
		}
	}

	if d.Annotation != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Annotation: %s\n", d.Annotation)
	}

	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
