// Command medlit searches PubMed, classifies results by title match, and
// formats citations, reference lists, and MeSH suggestions.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/henrybloomingdale/medlit/internal/cite"
	"github.com/henrybloomingdale/medlit/internal/classify"
	"github.com/henrybloomingdale/medlit/internal/config"
	"github.com/henrybloomingdale/medlit/internal/litsearch"
	"github.com/henrybloomingdale/medlit/internal/log"
	"github.com/henrybloomingdale/medlit/internal/ncbi"
	"github.com/henrybloomingdale/medlit/internal/output"
	"github.com/henrybloomingdale/medlit/internal/query"
)

var (
	flagConfig   string
	flagVerbose  bool
	flagLogJSON  bool
	flagAPIKey   string
	flagEmail    string
	flagJSON     bool
	flagHuman    bool
	flagMarkdown bool
	flagFull     bool
	flagStyle    string
	flagCSV      string
	flagRIS      string
	flagCSL      string
	flagBib      string

	flagMode     string
	flagPolicy   string
	flagLimit    int
	flagYear     string
	flagRegion   string
	flagMesh     string
	flagFullText bool
	flagDescribe bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "medlit",
	Short:         "PubMed literature search",
	Long:          `Search PubMed, split results by whether your keywords appear in the title, and format citations in Vancouver, APA, or MLA style.`,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateGlobalFlags(cmd)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default: ./medlit.yaml or $XDG_CONFIG_HOME/medlit/medlit.yaml)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Log requests and failures to stderr")
	pf.BoolVar(&flagLogJSON, "log-json", false, "Write stderr logs as JSON lines")
	pf.StringVar(&flagAPIKey, "api-key", "", "NCBI API key (or set NCBI_API_KEY env var)")
	pf.StringVar(&flagEmail, "email", "", "Contact email sent to NCBI")
	pf.BoolVar(&flagJSON, "json", false, "Output as structured JSON")
	pf.BoolVarP(&flagHuman, "human", "H", false, "Rich colorful terminal output")
	pf.BoolVar(&flagMarkdown, "markdown", false, "Output as a Markdown document")
	pf.BoolVar(&flagFull, "full", false, "Show full abstract (with --human)")
	pf.StringVar(&flagStyle, "style", "vancouver", "Citation style: vancouver, apa, or mla")
	pf.StringVar(&flagCSV, "csv", "", "Export records to CSV file")
	pf.StringVar(&flagRIS, "ris", "", "Export records to RIS file")
	pf.StringVar(&flagCSL, "csl", "", "Export records to CSL-YAML file")
	pf.StringVar(&flagBib, "bibtex", "", "Export records to BibTeX file")
	pf.IntVar(&flagLimit, "limit", query.DefaultLimit, "Maximum number of results (1-100)")
	pf.StringVar(&flagMode, "mode", "", "Access mode: structured (E-utilities) or html (search page)")
	pf.StringVar(&flagPolicy, "policy", "", "Title classifier: all-words, substring, or regex")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(citeCmd)
	rootCmd.AddCommand(refsCmd)
	rootCmd.AddCommand(fulltextCmd)
	rootCmd.AddCommand(suggestCmd)
}

// exportCommands are the only commands whose records can be written to a file.
var exportCommands = map[string]bool{"search": true, "fetch": true, "browse": true}

func validateGlobalFlags(cmd *cobra.Command) error {
	if flagLimit < 1 || flagLimit > query.MaxLimit {
		return fmt.Errorf("--limit must be between 1 and %d", query.MaxLimit)
	}
	if _, err := cite.ParseStyle(flagStyle); err != nil {
		return err
	}
	if flagMode != "" {
		if _, err := query.ParseMode(flagMode); err != nil {
			return err
		}
	}
	if flagPolicy != "" {
		if _, err := classify.ByName(flagPolicy); err != nil {
			return err
		}
	}
	if _, err := query.ParseYearRange(flagYear); err != nil {
		return err
	}
	if _, err := query.ParseRegion(flagRegion); err != nil {
		return err
	}
	if (flagCSV != "" || flagRIS != "" || flagCSL != "" || flagBib != "") && !exportCommands[cmd.Name()] {
		return fmt.Errorf("file exports (--csv, --ris, --csl, --bibtex) are only supported by search, fetch and browse")
	}
	if countTrue(flagJSON, flagHuman, flagMarkdown) > 1 {
		return fmt.Errorf("choose one of --json, --human or --markdown")
	}
	return nil
}

func countTrue(bs ...bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}

func outputCfg() output.OutputConfig {
	style, _ := cite.ParseStyle(flagStyle)
	return output.OutputConfig{
		JSON:     flagJSON,
		Human:    flagHuman,
		Markdown: flagMarkdown,
		Full:     flagFull,
		Style:    style,
		CSVFile:  flagCSV,
		RISFile:  flagRIS,
		CSLFile:  flagCSL,
		BibFile:  flagBib,
	}
}

// loadConfig reads the config file and environment, then applies any flag
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg, used, err := config.Load(flagConfig)
	if err != nil {
		return nil, "", err
	}
	flags := cmd.Flags()
	if flags.Changed("api-key") {
		cfg.APIKey = flagAPIKey
	}
	if flags.Changed("email") {
		cfg.Email = flagEmail
	}
	if flags.Changed("limit") {
		cfg.Limit = flagLimit
	}
	if flags.Changed("mode") {
		cfg.Mode = flagMode
	}
	if flags.Changed("policy") {
		cfg.Policy = flagPolicy
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, used, nil
}

// newLogger returns the stderr logger selected by --verbose and --log-json.
func newLogger(cmd *cobra.Command) *slog.Logger {
	if flagLogJSON {
		return log.NewJSON(cmd.ErrOrStderr(), flagVerbose)
	}
	return log.New(cmd.ErrOrStderr(), flagVerbose)
}

// newSearcher wires the transport, logger, and every client from cfg.
func newSearcher(cmd *cobra.Command, cfg *config.Config, usedFile string) *litsearch.Searcher {
	logger := newLogger(cmd)
	if usedFile != "" {
		logger.Debug("loaded config", slog.String("file", usedFile))
	}

	base := ncbi.NewBaseClient(
		ncbi.WithBaseURL(cfg.EutilsOrigin),
		ncbi.WithAPIKey(cfg.APIKey),
		ncbi.WithEmail(cfg.Email),
		ncbi.WithLogger(logger),
	)

	return litsearch.New(base,
		litsearch.WithPolicy(cfg.ClassifierPolicy()),
		litsearch.WithConcurrency(cfg.Concurrency),
		litsearch.WithSearchOrigin(cfg.SearchOrigin),
		litsearch.WithMirrorOrigin(cfg.MirrorOrigin),
		litsearch.WithTerminologyOrigin(cfg.TerminologyOrigin),
		litsearch.WithLogger(logger),
	)
}

// setup is loadConfig followed by newSearcher.
func setup(cmd *cobra.Command) (*config.Config, *litsearch.Searcher, error) {
	cfg, used, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return cfg, newSearcher(cmd, cfg, used), nil
}

// buildQuery turns the search arguments and filter flags into a query.
func buildQuery(cfg *config.Config, args []string) (query.SearchQuery, error) {
	years, err := query.ParseYearRange(flagYear)
	if err != nil {
		return query.SearchQuery{}, err
	}
	region, err := query.ParseRegion(flagRegion)
	if err != nil {
		return query.SearchQuery{}, err
	}
	return query.New(strings.Join(args, " "),
		query.WithMode(cfg.SearchMode()),
		query.WithLimit(cfg.Limit),
		query.WithYearRange(years),
		query.WithRegion(region),
		query.WithCountry(cfg.RegionCountry),
		query.WithMeSH(flagMesh),
	)
}

var pmidRe = regexp.MustCompile(`^\d+$`)

// normalizePMIDArgs accepts PMIDs as separate args or comma-separated lists.
func normalizePMIDArgs(args []string) ([]string, error) {
	var pmids []string
	for _, arg := range args {
		for _, p := range strings.Split(arg, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if !pmidRe.MatchString(p) {
				return nil, fmt.Errorf("invalid PMID %q", p)
			}
			pmids = append(pmids, p)
		}
	}
	if len(pmids) == 0 {
		return nil, fmt.Errorf("at least one PMID is required")
	}
	return pmids, nil
}

// reportGaps writes unresolved and failed identifiers to stderr for commands
// whose stdout carries only records.
func reportGaps(cmd *cobra.Command, b *litsearch.Batch) {
	if len(b.Unresolved) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: not found: %s\n", strings.Join(b.Unresolved, ", "))
	}
	for _, f := range b.Failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: PMID %s failed to load: %s\n", f.ID, f.Reason)
	}
}
