package storage

import "catalog-scraper/models"

// ReportWriter renders report pages and returns the paths it wrote.
type ReportWriter interface {
	Write(pages []*models.ReportPage) ([]string, error)
}

var _ ReportWriter = (*HTMLWriter)(nil)
