package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/henrybloomingdale/medlit/internal/article"
	"github.com/henrybloomingdale/medlit/internal/cite"
	"github.com/henrybloomingdale/medlit/internal/litsearch"
	"github.com/henrybloomingdale/medlit/internal/mesh"
	"github.com/henrybloomingdale/medlit/internal/pubmedweb"
)

// --- Styles ---

var (
	cyan       = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	bold       = lipgloss.NewStyle().Bold(true)
	dim        = lipgloss.NewStyle().Faint(true)
	green      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	yellow     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	magenta    = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Padding(0, 1)
)

// truncate cuts a string to maxLen runes, appending "…" if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Headers(headers...).
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
			}
			return lipgloss.NewStyle()
		})
}

// --- Search ---

func formatSearchHuman(w io.Writer, res *litsearch.Result, cfg OutputConfig) error {
	if res.Empty() {
		fmt.Fprintln(w, "🔬 No results found.")
		writeGapsHuman(w, res)
		return nil
	}

	header := fmt.Sprintf("🔬 %d articles for %q", len(res.Matches)+len(res.Others), res.Query)
	if res.Total > len(res.Matches)+len(res.Others) {
		header += fmt.Sprintf(" (of %d)", res.Total)
	}
	fmt.Fprintln(w, bold.Render(header))
	fmt.Fprintf(w, "   %s\n\n", dim.Render("source: "+res.Source+" · policy: "+res.Policy))

	if len(res.Matches) > 0 {
		fmt.Fprintln(w, green.Render(fmt.Sprintf("🔍 Keywords in the title (%d)", len(res.Matches))))
		fmt.Fprintln(w, recordTable(res.Matches).Render())
	} else {
		fmt.Fprintln(w, yellow.Render("No results found with your keywords in the title."))
	}

	if len(res.Others) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, magenta.Render(fmt.Sprintf("📄 Other relevant articles (%d)", len(res.Others))))
		fmt.Fprintln(w, recordTable(res.Others).Render())
	}

	writeGapsHuman(w, res)

	fmt.Fprintln(w)
	fmt.Fprintln(w, dim.Render("💾 Use --ris refs.ris or --csl refs.yaml to export"))
	return nil
}

func recordTable(records []article.Record) *table.Table {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			cyan.Render(r.ID),
			bold.Render(truncate(r.Title, 50)),
			truncate(r.Authors, 24),
			truncate(r.Journal, 20),
			r.Year(),
		})
	}
	return newTable("PMID", "Title", "Authors", "Journal", "Year").Rows(rows...)
}

func writeGapsHuman(w io.Writer, res *litsearch.Result) {
	if n := len(res.Unresolved); n > 0 {
		fmt.Fprintf(w, "\n%s %s\n", yellow.Render(fmt.Sprintf("⚠ %d not found:", n)), dim.Render(strings.Join(res.Unresolved, ", ")))
	}
	if n := len(res.Failed); n > 0 {
		ids := make([]string, n)
		for i, f := range res.Failed {
			ids[i] = f.ID
		}
		fmt.Fprintf(w, "%s %s\n", yellow.Render(fmt.Sprintf("⚠ %d failed to load:", n)), dim.Render(strings.Join(ids, ", ")))
	}
}

// --- Records ---

func formatRecordsHuman(w io.Writer, records []article.Record, cfg OutputConfig) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No articles found.")
		return nil
	}

	for i, r := range records {
		if i > 0 {
			fmt.Fprintln(w)
		}

		meta := cyan.Render("PMID: " + r.ID)
		if y := r.Year(); y != "" {
			meta += dim.Render(" · ") + y
		}
		fmt.Fprintln(w, boxStyle.Render(bold.Render(r.Title)+"\n"+meta))

		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Authors:"), r.Authors)
		fmt.Fprintf(w, "  %s %s (%s)\n", labelStyle.Render("Journal:"), r.Journal, r.Date)
		if r.DOI != "" {
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("DOI:"), yellow.Render(r.DOI))
		}
		if r.FullTextLink != "" {
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Full text:"), dim.Render(r.FullTextLink))
		}
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(cfg.Style.Label()+":"), cite.FormatStyle(r, cfg.Style))

		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n", labelStyle.Render("Abstract:"))
		abstract := r.Abstract
		if !cfg.Full && len([]rune(abstract)) > 500 {
			fmt.Fprintf(w, "  %s\n", truncate(abstract, 500))
			fmt.Fprintf(w, "  %s\n", dim.Render("[use --full for complete abstract]"))
		} else {
			fmt.Fprintf(w, "  %s\n", abstract)
		}
	}

	return nil
}

// --- References ---

func formatReferencesHuman(w io.Writer, pmid string, refs []pubmedweb.Reference) error {
	if len(refs) == 0 {
		fmt.Fprintf(w, "📖 No references found for PMID %s.\n", cyan.Render(pmid))
		return nil
	}

	fmt.Fprintf(w, "📖 %s for PMID %s (%d results)\n\n", bold.Render("References"), cyan.Render(pmid), len(refs))

	rows := make([][]string, 0, len(refs))
	for i, r := range refs {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), truncate(r.Title, 60), dim.Render(r.Link)})
	}
	fmt.Fprintln(w, newTable("#", "Reference", "Link").Rows(rows...).Render())
	return nil
}

// --- MeSH ---

func formatDescriptorHuman(w io.Writer, d *mesh.Descriptor) error {
	fmt.Fprintf(w, "🏷️  %s  %s\n\n", bold.Render(d.Name), dim.Render(d.UI))

	if len(d.TreeNumbers) > 0 {
		fmt.Fprintf(w, "  %s\n", labelStyle.Render("Tree Numbers:"))
		for _, tn := range d.TreeNumbers {
			fmt.Fprintf(w, "    %s %s\n", magenta.Render("├"), tn)
		}
		fmt.Fprintln(w)
	}

	if d.ScopeNote != "" {
		fmt.Fprintf(w, "  %s\n", labelStyle.Render("Scope Note:"))
		for _, line := range strings.Split(wordWrap(d.ScopeNote, 76), "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
		fmt.Fprintln(w)
	}

	if len(d.EntryTerms) > 0 {
		fmt.Fprintf(w, "  %s ", labelStyle.Render("Synonyms:"))
		colored := make([]string, len(d.EntryTerms))
		for i, et := range d.EntryTerms {
			colored[i] = yellow.Render(et)
		}
		fmt.Fprintln(w, strings.Join(colored, ", "))
		fmt.Fprintln(w)
	}

	if d.Annotation != "" {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Annotation:"), d.Annotation)
	}

	return nil
}

// wordWrap wraps text at the given width, breaking at spaces.
func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)
	return strings.Join(lines, "\n")
}
