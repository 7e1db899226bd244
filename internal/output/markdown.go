package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/henrybloomingdale/medlit/internal/article"
	"github.com/henrybloomingdale/medlit/internal/cite"
	"github.com/henrybloomingdale/medlit/internal/litsearch"
)

func formatSearchMarkdown(w io.Writer, res *litsearch.Result, cfg OutputConfig) error {
	md := markdown.NewMarkdown(w)

	md.H1("MedLit results: " + res.Query)
	md.PlainText("")

	if res.Empty() {
		md.Warning("No results found.")
		md.PlainText("")
		writeGapsMarkdown(md, res)
		return md.Build()
	}

	if len(res.Matches) > 0 {
		md.H2("Articles with your keywords in the title")
		md.PlainText("")
		writeArticlesMarkdown(md, res.Matches, cfg)
	} else {
		md.Warning("No results found with your keywords in the title.")
		md.PlainText("")
	}

	if len(res.Others) > 0 {
		md.H2("Other relevant articles")
		md.PlainText("")
		writeArticlesMarkdown(md, res.Others, cfg)
	}

	writeGapsMarkdown(md, res)
	return md.Build()
}

func formatRecordsMarkdown(w io.Writer, records []article.Record, cfg OutputConfig) error {
	md := markdown.NewMarkdown(w)
	if len(records) == 0 {
		md.PlainText("No articles found.")
		return md.Build()
	}
	writeArticlesMarkdown(md, records, cfg)
	return md.Build()
}

func writeArticlesMarkdown(md *markdown.Markdown, records []article.Record, cfg OutputConfig) {
	for i, r := range records {
		md.H3(fmt.Sprintf("Article %d", i+1))
		md.PlainText("")

		lines := []string{
			markdown.Bold("Title:") + " " + r.Title,
			markdown.Bold("Authors:") + " " + r.Authors,
			markdown.Bold("Journal:") + " " + r.Journal,
			markdown.Bold("Publication Date:") + " " + r.Date,
			markdown.Bold(fmt.Sprintf("Citation (%s Style):", cfg.Style.Label())) + " " + cite.FormatStyle(r, cfg.Style),
		}
		if r.Link != "" {
			lines = append(lines, markdown.Link("View on PubMed", r.Link))
		}
		if r.FullTextLink != "" {
			lines = append(lines, markdown.Link("Full text (mirror)", r.FullTextLink))
		}
		md.BulletList(lines...)
		md.PlainText("")
		md.HorizontalRule()
		md.PlainText("")
	}
}

func writeGapsMarkdown(md *markdown.Markdown, res *litsearch.Result) {
	if len(res.Unresolved) > 0 {
		md.Note(fmt.Sprintf("%d record(s) could not be found: %s", len(res.Unresolved), strings.Join(res.Unresolved, ", ")))
		md.PlainText("")
	}
	if len(res.Failed) > 0 {
		ids := make([]string, len(res.Failed))
		for i, f := range res.Failed {
			ids[i] = f.ID
		}
		md.Caution(fmt.Sprintf("%d record(s) failed to load: %s", len(res.Failed), strings.Join(ids, ", ")))
		md.PlainText("")
	}
}
