package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/henrybloomingdale/medlit/internal/article"
	"github.com/henrybloomingdale/medlit/internal/config"
	"github.com/henrybloomingdale/medlit/internal/fulltext"
	"github.com/henrybloomingdale/medlit/internal/litsearch"
	"github.com/henrybloomingdale/medlit/internal/output"
)

func init() {
	searchCmd.Flags().StringVar(&flagYear, "year", "", "Filter by publication year or range (e.g., 2020-2025)")
	searchCmd.Flags().StringVar(&flagRegion, "region", "", "Filter by region: all, domestic, or foreign")
	searchCmd.Flags().StringVar(&flagMesh, "mesh", "", "Restrict to a MeSH descriptor")
	searchCmd.Flags().BoolVar(&flagFullText, "fulltext", false, "Resolve the full-text document for each result (one request per record)")

	suggestCmd.Flags().BoolVar(&flagDescribe, "describe", false, "Show the full MeSH record instead of suggestions")
}

// searchCmd implements the search subcommand.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search PubMed and split results by title match",
	Long: `Search PubMed and list the articles whose titles contain your keywords
before the other relevant articles. Records PubMed could not return are
reported separately, so an empty result always means nothing matched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, searcher, err := setup(cmd)
		if err != nil {
			return err
		}
		q, err := buildQuery(cfg, args)
		if err != nil {
			return err
		}

		res, err := searcher.Search(cmd.Context(), q)
		if err != nil {
			return err
		}

		if flagFullText {
			res.Matches = resolveFullText(cmd, searcher, res.Matches)
			res.Others = resolveFullText(cmd, searcher, res.Others)
		}

		return output.FormatSearchResult(cmd.OutOrStdout(), res, outputCfg())
	},
}

// resolveFullText replaces each mirror page link with the embedded document
// when the mirror has one.
func resolveFullText(cmd *cobra.Command, s *litsearch.Searcher, records []article.Record) []article.Record {
	for i, rec := range records {
		if link := s.FullTextLink(cmd.Context(), rec); link != "" {
			records[i].FullTextLink = link
		}
	}
	return records
}

// fetchCmd implements the fetch subcommand.
var fetchCmd = &cobra.Command{
	Use:   "fetch <pmid> [pmid...]",
	Short: "Fetch full article details",
	Long:  `Retrieve title, authors, journal, date, DOI, and abstract for one or more PMIDs.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pmids, err := normalizePMIDArgs(args)
		if err != nil {
			return err
		}
		_, searcher, err := setup(cmd)
		if err != nil {
			return err
		}

		batch, err := searcher.Fetch(cmd.Context(), pmids...)
		if err != nil {
			return fmt.Errorf("fetch failed: %w", err)
		}
		reportGaps(cmd, batch)
		if len(batch.Records) == 0 && len(batch.Failed) > 0 {
			return errors.New("no records could be loaded")
		}

		return output.FormatRecords(cmd.OutOrStdout(), batch.Records, outputCfg())
	},
}

// citeCmd implements the cite subcommand.
var citeCmd = &cobra.Command{
	Use:   "cite <pmid>",
	Short: "Format an article's citation",
	Long:  `Print the Vancouver, APA, and MLA citations for one article.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pmids, err := normalizePMIDArgs(args)
		if err != nil {
			return err
		}
		_, searcher, err := setup(cmd)
		if err != nil {
			return err
		}

		rec, err := fetchOne(cmd, searcher, pmids[0])
		if err != nil {
			return err
		}
		return output.FormatCitations(cmd.OutOrStdout(), rec, outputCfg())
	},
}

// fetchOne loads a single record or explains why it could not.
func fetchOne(cmd *cobra.Command, s *litsearch.Searcher, pmid string) (article.Record, error) {
	batch, err := s.Fetch(cmd.Context(), pmid)
	if err != nil {
		return article.Record{}, fmt.Errorf("fetch failed: %w", err)
	}
	if len(batch.Failed) > 0 {
		return article.Record{}, fmt.Errorf("PMID %s failed to load: %s", pmid, batch.Failed[0].Reason)
	}
	if len(batch.Records) == 0 {
		return article.Record{}, fmt.Errorf("PMID %s not found", pmid)
	}
	return batch.Records[0], nil
}

// pageRecord is a record carrying only what the page-based lookups need.
func pageRecord(cfg *config.Config, pmid string) article.Record {
	rec := article.New(pmid)
	rec.Link = strings.TrimRight(cfg.SearchOrigin, "/") + "/" + pmid + "/"
	rec.FullTextLink = fulltext.Link(cfg.MirrorOrigin, rec)
	return rec
}

// refsCmd implements the refs subcommand.
var refsCmd = &cobra.Command{
	Use:   "refs <pmid>",
	Short: "List the references cited by an article",
	Long:  `Read the reference list from the article's PubMed page.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pmids, err := normalizePMIDArgs(args)
		if err != nil {
			return err
		}
		cfg, searcher, err := setup(cmd)
		if err != nil {
			return err
		}

		refs := searcher.References(cmd.Context(), pageRecord(cfg, pmids[0]))
		return output.FormatReferences(cmd.OutOrStdout(), pmids[0], refs, outputCfg())
	},
}

// fulltextCmd implements the fulltext subcommand.
var fulltextCmd = &cobra.Command{
	Use:   "fulltext <pmid>",
	Short: "Find the full-text document on the mirror",
	Long:  `Open the article's mirror page and print the embedded document link.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pmids, err := normalizePMIDArgs(args)
		if err != nil {
			return err
		}
		cfg, searcher, err := setup(cmd)
		if err != nil {
			return err
		}

		rec := pageRecord(cfg, pmids[0])
		link := searcher.FullTextLink(cmd.Context(), rec)
		return output.FormatFullText(cmd.OutOrStdout(), rec, link, outputCfg())
	},
}

// suggestCmd implements the suggest subcommand.
var suggestCmd = &cobra.Command{
	Use:   "suggest <prefix>",
	Short: "Suggest MeSH descriptors",
	Long: `List up to ten MeSH descriptor labels containing the given text.
With --describe, show the matching descriptor's tree numbers, scope note,
and synonyms instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, searcher, err := setup(cmd)
		if err != nil {
			return err
		}
		term := strings.Join(args, " ")

		if flagDescribe {
			d, err := searcher.Describe(cmd.Context(), term)
			if err != nil {
				return fmt.Errorf("MeSH lookup failed: %w", err)
			}
			return output.FormatDescriptor(cmd.OutOrStdout(), d, outputCfg())
		}

		return output.FormatSuggestions(cmd.OutOrStdout(), term, searcher.Suggest(cmd.Context(), term), outputCfg())
	},
}
