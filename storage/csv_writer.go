package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"venue-crawler/models"
	"venue-crawler/utils"
)

// CSVWriter writes accepted sites to a CSV file in one pass.
type CSVWriter struct {
	path   string
	logger *utils.Logger
}

// NewCSVWriter returns a writer for path. Nothing touches the file until
// Save is called with at least one site.
func NewCSVWriter(path string, logger *utils.Logger) *CSVWriter {
	return &CSVWriter{path: path, logger: logger}
}

// Save writes a header row and one row per site, in order, replacing any
// existing file. An empty slice leaves the file untouched. Intermediate
// directories are created automatically.
func (c *CSVWriter) Save(sites []models.Site) (int, error) {
	if len(sites) == 0 {
		c.logger.Info("[csv] No sites to save")
		return 0, nil
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return 0, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(c.path)
	if err != nil {
		return 0, fmt.Errorf("csv: create file %q: %w", c.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.FieldNames()); err != nil {
		return 0, fmt.Errorf("csv: write header: %w", err)
	}
	for _, s := range sites {
		if err := w.Write(s.Row()); err != nil {
			return 0, fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("csv: flush: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("csv: close: %w", err)
	}

	c.logger.Info("[csv] Saved %d sites to '%s'.", len(sites), c.path)
	return len(sites), nil
}

// Write implements SiteWriter.
func (c *CSVWriter) Write(_ context.Context, sites []models.Site) error {
	_, err := c.Save(sites)
	return err
}

func (c *CSVWriter) Close() error { return nil }
