package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/henrybloomingdale/medlit/internal/article"
)

// writeRecordsRIS exports records to RIS format for citation managers.
func writeRecordsRIS(path string, records []article.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating RIS file: %w", err)
	}
	defer f.Close()

	return WriteRIS(f, records)
}

// WriteRIS writes records as RIS entries. Sentinel fields are omitted.
func WriteRIS(out io.Writer, records []article.Record) error {
	w := bufio.NewWriter(out)
	for i, r := range records {
		writeRISTag(w, "TY", "JOUR")
		writeRISTag(w, "TI", known(r.Title, article.NoTitle))

		for _, au := range splitAuthors(known(r.Authors, article.NoAuthors)) {
			writeRISTag(w, "AU", risAuthor(au))
		}

		writeRISTag(w, "PY", r.Year())
		writeRISTag(w, "DA", known(r.Date, article.NoDate))
		writeRISTag(w, "JO", known(r.Journal, article.NoJournal))
		writeRISTag(w, "DO", r.DOI)
		writeRISTag(w, "AB", known(r.Abstract, article.NoAbstract))
		if r.ID != "" {
			writeRISTag(w, "ID", "PMID:"+r.ID)
		}
		writeRISTag(w, "UR", r.Link)
		writeRISTag(w, "L1", r.FullTextLink)
		writeRISTag(w, "ER", "")

		if i < len(records)-1 {
			if _, err := w.WriteString("\n"); err != nil {
				return fmt.Errorf("writing RIS separator: %w", err)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing RIS output: %w", err)
	}

	return nil
}

func writeRISTag(w *bufio.Writer, tag, value string) {
	if tag == "" {
		return
	}
	if tag != "ER" && strings.TrimSpace(value) == "" {
		return
	}
	if tag == "ER" {
		_, _ = w.WriteString("ER  -\n")
		return
	}
	_, _ = w.WriteString(tag + "  - " + sanitizeRISValue(value) + "\n")
}

func sanitizeRISValue(v string) string {
	v = strings.ReplaceAll(v, "\r\n", " ")
	v = strings.ReplaceAll(v, "\n", " ")
	v = strings.ReplaceAll(v, "\r", " ")
	return strings.TrimSpace(v)
}

// known returns v unless it is the sentinel.
func known(v, sentinel string) string {
	if v == sentinel {
		return ""
	}
	return v
}

// splitAuthors splits a ", "-joined author string, dropping a trailing period.
func splitAuthors(s string) []string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// risAuthor turns "Last First" into "Last, First". Single tokens and
// "et al" pass through.
func risAuthor(name string) string {
	last, first, ok := strings.Cut(name, " ")
	if !ok || strings.EqualFold(name, "et al") {
		return name
	}
	return last + ", " + strings.TrimSpace(first)
}
