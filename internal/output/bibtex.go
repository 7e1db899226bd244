package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/henrybloomingdale/medlit/internal/article"
)

var (
	bibYearRe    = regexp.MustCompile(`\b(\d{4})\b`)
	bibKeyDropRe = regexp.MustCompile(`[^A-Za-z0-9]`)
)

const maxBibTeXKeyLen = 64

// latexEscaper escapes LaTeX specials. Backslash must come first.
var latexEscaper = strings.NewReplacer(
	`\`, `\\`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\~{}`,
	`^`, `\^{}`,
)

// writeRecordsBibTeX exports records to a .bib file.
func writeRecordsBibTeX(path string, records []article.Record) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("BibTeX filename is required")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating BibTeX file: %w", err)
	}
	defer f.Close()

	return WriteBibTeX(f, records)
}

// WriteBibTeX writes one @article entry per record. Keys are "LastYear" with
// a letter suffix on collision; sentinel fields are omitted.
func WriteBibTeX(out io.Writer, records []article.Record) error {
	w := bufio.NewWriter(out)
	keys := bibtexKeys(records)
	for i, r := range records {
		if i > 0 {
			w.WriteString("\n")
		}
		w.WriteString(bibtexEntry(keys[i], r))
		w.WriteString("\n")
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing BibTeX output: %w", err)
	}
	return nil
}

func bibtexEntry(key string, r article.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "@article{%s,\n", key)

	field := func(name, value string) {
		if value = latexEscape(value); value != "" {
			fmt.Fprintf(&b, "  %s = {%s},\n", name, value)
		}
	}
	field("author", bibtexAuthors(r))
	field("title", known(r.Title, article.NoTitle))
	field("journal", known(r.Journal, article.NoJournal))
	field("year", r.Year())
	field("doi", r.DOI)
	field("pmid", r.ID)
	field("url", r.Link)

	b.WriteString("}")
	return b.String()
}

// bibtexAuthors joins the record's authors as "Last, First and ...".
func bibtexAuthors(r article.Record) string {
	names := splitAuthors(known(r.Authors, article.NoAuthors))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.EqualFold(n, "et al") {
			continue
		}
		out = append(out, risAuthor(n))
	}
	return strings.Join(out, " and ")
}

// bibtexKeys assigns a unique key to every record, in order.
func bibtexKeys(records []article.Record) []string {
	keys := make([]string, len(records))
	seen := make(map[string]int, len(records))
	for i, r := range records {
		base := bibtexKeyBase(r)
		n := seen[base]
		seen[base] = n + 1
		keys[i] = base + alphaSuffix(n)
	}
	return keys
}

func bibtexKeyBase(r article.Record) string {
	author := "Unknown"
	if names := splitAuthors(known(r.Authors, article.NoAuthors)); len(names) > 0 {
		author, _, _ = strings.Cut(names[0], " ")
	}
	key := sanitizeBibTeXKey(author + yearForKey(r.Date))
	if key == "" {
		return "Ref"
	}
	return key
}

// yearForKey returns the first four-digit year in date, or "nd".
func yearForKey(date string) string {
	if m := bibYearRe.FindStringSubmatch(date); m != nil {
		return m[1]
	}
	return "nd"
}

// sanitizeBibTeXKey keeps ASCII letters and digits, ensures a leading letter,
// and caps the length.
func sanitizeBibTeXKey(s string) string {
	s = bibKeyDropRe.ReplaceAllString(s, "")
	if s == "" {
		return ""
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "Ref" + s
	}
	if len(s) > maxBibTeXKeyLen {
		s = s[:maxBibTeXKeyLen]
	}
	return s
}

// alphaSuffix maps 0 to "", 1 to "a", 26 to "z", 27 to "aa".
func alphaSuffix(n int) string {
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('a' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}

func latexEscape(s string) string {
	return latexEscaper.Replace(strings.Join(strings.Fields(s), " "))
}
