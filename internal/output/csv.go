package output

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/henrybloomingdale/medlit/internal/article"
	"github.com/henrybloomingdale/medlit/internal/cite"
)

var csvHeader = []string{"pmid", "title", "authors", "journal", "date", "doi", "link", "full_text_link", "vancouver"}

// writeRecordsCSV exports one row per record.
func writeRecordsCSV(path string, records []article.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating CSV file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range records {
		row := []string{r.ID, r.Title, r.Authors, r.Journal, r.Date, r.DOI, r.Link, r.FullTextLink, cite.FormatVancouver(r)}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
