package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/henrybloomingdale/medlit/internal/article"
	"github.com/henrybloomingdale/medlit/internal/bookmark"
	"github.com/henrybloomingdale/medlit/internal/cite"
	"github.com/henrybloomingdale/medlit/internal/classify"
	"github.com/henrybloomingdale/medlit/internal/config"
	"github.com/henrybloomingdale/medlit/internal/litsearch"
	"github.com/henrybloomingdale/medlit/internal/output"
	"github.com/henrybloomingdale/medlit/internal/pubmedweb"
	"github.com/henrybloomingdale/medlit/internal/query"
)

func init() {
	rootCmd.AddCommand(browseCmd)
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Interactive search with bookmarks",
	Long: `Interactive literature search.

Enter a query, pick articles from the results, view their citations,
references, and full text, and bookmark the ones you want to keep.
Bookmarks are printed when you finish and exported with --ris,
--bibtex, --csl or --csv.

  medlit browse --ris saved.ris`,
	RunE: runBrowse,
}

// Styles.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(1, 2).
			MarginTop(1)
)

// Actions offered for a selected record.
const (
	actionCite     = "cite"
	actionRefs     = "refs"
	actionFullText = "fulltext"
	actionBookmark = "bookmark"
	actionBack     = "back"
)

// session is one interactive browse run.
type session struct {
	cmd       *cobra.Command
	out       io.Writer
	searcher  *litsearch.Searcher
	bookmarks bookmark.List
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, searcher, err := setup(cmd)
	if err != nil {
		return err
	}
	s := &session{cmd: cmd, out: cmd.OutOrStdout(), searcher: searcher}

	fmt.Fprintln(s.out, titleStyle.Render("🔬 MedLit"))
	fmt.Fprintln(s.out, subtitleStyle.Render("Search PubMed, read citations, and bookmark what you need"))
	fmt.Fprintln(s.out)

	for {
		again, err := s.searchOnce(cfg)
		if errors.Is(err, huh.ErrUserAborted) {
			break
		}
		if err != nil {
			return err
		}
		if !again {
			break
		}
	}

	return s.finish()
}

// searchOnce asks for a query, runs it, and lets the user work through the
// results. It reports whether the user wants another search.
func (s *session) searchOnce(cfg *config.Config) (bool, error) {
	var (
		term     string
		mode     = cfg.SearchMode().String()
		policy   = cfg.ClassifierPolicy().Name()
		limitStr string
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("What are you looking for?").
				Description("Keywords, a Boolean expression, or MeSH terms").
				Placeholder("e.g., laparoscopic cholecystectomy").
				Value(&term).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return fmt.Errorf("please enter a search term")
					}
					return nil
				}),

			huh.NewInput().
				Title("Number of results").
				Placeholder(strconv.Itoa(cfg.Limit)).
				Value(&limitStr).
				Validate(validateLimit),
		).Title("Search"),

		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Source").
				Options(
					huh.NewOption("E-utilities (full abstracts, DOI)", query.Structured.String()),
					huh.NewOption("PubMed search page (faster, no abstracts)", query.HTML.String()),
				).
				Value(&mode),

			huh.NewSelect[string]().
				Title("Title matching").
				Options(
					huh.NewOption("Every keyword, any order", classify.NameAllWords),
					huh.NewOption("Exact phrase", classify.NameSubstring),
					huh.NewOption("Regular expression", classify.NameRegex),
				).
				Value(&policy),
		).Title("Options"),
	).WithTheme(huh.ThemeCatppuccin())

	if err := form.RunWithContext(s.cmd.Context()); err != nil {
		return false, err
	}

	limit, err := parseLimit(limitStr, cfg.Limit)
	if err != nil {
		return false, err
	}
	m, err := query.ParseMode(mode)
	if err != nil {
		return false, err
	}
	p, err := classify.ByName(policy)
	if err != nil {
		return false, err
	}

	q, err := query.New(term,
		query.WithMode(m),
		query.WithLimit(limit),
		query.WithCountry(cfg.RegionCountry),
	)
	if err != nil {
		return false, err
	}

	var (
		res       *litsearch.Result
		searchErr error
	)
	action := func() {
		res, searchErr = s.searcher.SearchWith(s.cmd.Context(), q, p)
	}
	if err := spinner.New().Title("Searching PubMed...").Action(action).Run(); err != nil {
		return false, err
	}
	if searchErr != nil {
		fmt.Fprintln(s.out, dimStyle.Render(fmt.Sprintf("Search failed: %v", searchErr)))
		return s.confirm("Try another search?")
	}

	cfgOut := outputCfg()
	cfgOut.Human = true
	cfgOut.CSVFile, cfgOut.RISFile, cfgOut.CSLFile, cfgOut.BibFile = "", "", "", ""
	if err := output.FormatSearchResult(s.out, res, cfgOut); err != nil {
		return false, err
	}

	if err := s.pickRecords(res.Records()); err != nil {
		return false, err
	}
	return s.confirm("Run another search?")
}

// pickRecords loops until the user is done with the current results.
func (s *session) pickRecords(records []article.Record) error {
	if len(records) == 0 {
		return nil
	}

	for {
		opts := make([]huh.Option[int], 0, len(records)+1)
		for i, r := range records {
			label := truncateLabel(r.Title, 70)
			if s.bookmarks.Contains(r.ID) {
				label = "★ " + label
			}
			opts = append(opts, huh.NewOption(label, i))
		}
		opts = append(opts, huh.NewOption("Done with these results", -1))

		choice := -1
		err := huh.NewForm(huh.NewGroup(
			huh.NewSelect[int]().
				Title("Pick an article").
				Options(opts...).
				Height(12).
				Value(&choice),
		)).WithTheme(huh.ThemeCatppuccin()).RunWithContext(s.cmd.Context())
		if err != nil {
			return err
		}
		if choice < 0 {
			return nil
		}

		if err := s.recordActions(records[choice]); err != nil {
			return err
		}
	}
}

// recordActions offers the lookups for one record until the user goes back.
func (s *session) recordActions(rec article.Record) error {
	for {
		action := actionCite
		err := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().
				Title(truncateLabel(rec.Title, 70)).
				Options(
					huh.NewOption("Show citations", actionCite),
					huh.NewOption("Show references", actionRefs),
					huh.NewOption("Find full text", actionFullText),
					huh.NewOption("Bookmark", actionBookmark),
					huh.NewOption("Back", actionBack),
				).
				Value(&action),
		)).WithTheme(huh.ThemeCatppuccin()).RunWithContext(s.cmd.Context())
		if err != nil {
			return err
		}

		cfgOut := outputCfg()
		cfgOut.Human = true

		switch action {
		case actionCite:
			if err := output.FormatCitations(s.out, rec, cfgOut); err != nil {
				return err
			}
		case actionRefs:
			refs := s.lookupRefs(rec)
			if err := output.FormatReferences(s.out, rec.ID, refs, cfgOut); err != nil {
				return err
			}
		case actionFullText:
			link := s.lookupFullText(rec)
			if err := output.FormatFullText(s.out, rec, link, cfgOut); err != nil {
				return err
			}
		case actionBookmark:
			s.bookmarks.Add(rec)
			fmt.Fprintln(s.out, successStyle.Render(fmt.Sprintf("✓ Bookmarked (%d saved)", s.bookmarks.Len())))
		case actionBack:
			return nil
		}
		fmt.Fprintln(s.out)
	}
}

func (s *session) lookupRefs(rec article.Record) (refs []pubmedweb.Reference) {
	_ = spinner.New().Title("Loading references...").Action(func() {
		refs = s.searcher.References(s.cmd.Context(), rec)
	}).Run()
	return refs
}

func (s *session) lookupFullText(rec article.Record) (link string) {
	_ = spinner.New().Title("Checking the mirror...").Action(func() {
		link = s.searcher.FullTextLink(s.cmd.Context(), rec)
	}).Run()
	return link
}

func (s *session) confirm(title string) (bool, error) {
	yes := false
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Yes").
			Negative("No").
			Value(&yes),
	)).WithTheme(huh.ThemeCatppuccin()).RunWithContext(s.cmd.Context())
	return yes, err
}

// finish prints and exports the bookmarks.
func (s *session) finish() error {
	items := s.bookmarks.Items()
	if len(items) == 0 {
		fmt.Fprintln(s.out, dimStyle.Render("\nNo bookmarks saved."))
		return nil
	}

	style, _ := cite.ParseStyle(flagStyle)
	lines := make([]string, len(items))
	for i, r := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, cite.FormatStyle(r, style))
	}
	fmt.Fprintln(s.out, successStyle.Render(fmt.Sprintf("\n✓ %d bookmark(s)", len(items))))
	fmt.Fprintln(s.out, panelStyle.Render(strings.Join(lines, "\n\n")))

	cfgOut := outputCfg()
	if err := output.Export(items, cfgOut); err != nil {
		return err
	}
	for _, f := range []string{cfgOut.RISFile, cfgOut.BibFile, cfgOut.CSLFile, cfgOut.CSVFile} {
		if f != "" {
			fmt.Fprintf(s.out, "  📄 %s\n", f)
		}
	}
	return nil
}

func validateLimit(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil // Allow empty for defaults.
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("please enter a whole number")
	}
	if n < 1 || n > query.MaxLimit {
		return fmt.Errorf("must be between 1 and %d", query.MaxLimit)
	}
	return nil
}

// parseLimit returns def for blank input.
func parseLimit(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	if err := validateLimit(s); err != nil {
		return 0, err
	}
	n, _ := strconv.Atoi(s)
	return n, nil
}

func truncateLabel(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
