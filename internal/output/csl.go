package output

import (
	"fmt"
	"os"

	"github.com/henrybloomingdale/medlit/internal/article"
	"github.com/henrybloomingdale/medlit/internal/cite"
)

// writeRecordsCSL exports records as a CSL-YAML bibliography.
func writeRecordsCSL(path string, records []article.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating CSL file: %w", err)
	}
	defer f.Close()

	return cite.CSL(f, records)
}
