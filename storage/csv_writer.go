package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"catalog-scraper/models"
)

// CSVWriter writes the ranked items to a CSV file.
type CSVWriter struct {
	path string
}

// NewCSVWriter returns a writer for path. Nothing is created until Write.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Write creates (or truncates) the file and writes one row per item, in rank
// order. Intermediate directories are created automatically.
func (c *CSVWriter) Write(items []*models.ItemRecord) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", c.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"rank", "popularity", "price", "brand", "url", "image"}); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for i, item := range items {
		row := []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(item.Popularity),
			strconv.FormatFloat(item.Price, 'f', 2, 64),
			item.Brand,
			item.URL,
			item.ImageURL,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	return f.Close()
}
