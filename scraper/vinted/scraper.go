// Package vinted scrapes a Vinted catalog search: it discovers the brand
// facets, crawls each brand's result pages and extracts item records.
// All knowledge of the site's markup lives in this package.
package vinted

import (
	"context"
	"fmt"

	"catalog-scraper/browser"
	"catalog-scraper/config"
	"catalog-scraper/models"
	"catalog-scraper/services"
	"catalog-scraper/utils"
)

// Scraper drives one sequential crawl of the catalog.
type Scraper struct {
	cfg      *config.Config
	logger   *utils.Logger
	browser  browser.Browser
	sel      Selectors
	throttle *utils.Throttle
}

// New creates a Scraper that renders pages with b.
func New(cfg *config.Config, logger *utils.Logger, b browser.Browser) *Scraper {
	return &Scraper{
		cfg:      cfg,
		logger:   logger.WithPrefix("vinted"),
		browser:  b,
		sel:      DefaultSelectors(),
		throttle: utils.NewThrottle(cfg.PageDelay),
	}
}

// Scrape discovers the scopes to crawl and extracts every scope in turn.
// It returns the unique items in extraction order. An error means the run
// must not produce output.
func (s *Scraper) Scrape(ctx context.Context) ([]*models.ItemRecord, *models.RunStats, error) {
	stats := models.NewRunStats()

	scopes, err := s.scopes(ctx)
	if err != nil {
		return nil, stats, err
	}
	stats.Scopes = len(scopes)
	if len(scopes) == 0 {
		s.logger.Warn("No brand scopes discovered, the report will be empty")
		return nil, stats, nil
	}

	page, err := s.browser.NewPage(ctx)
	if err != nil {
		return nil, stats, fmt.Errorf("vinted: open extraction page: %w", err)
	}
	defer page.Close()

	agg := services.NewAggregator()
	for i, scope := range scopes {
		s.logger.Info("Scope %d/%d: %s", i+1, len(scopes), scope.Name)
		if _, err := s.ExtractScope(ctx, page, scope, agg, stats); err != nil {
			return nil, stats, err
		}
	}

	stats.Retained = agg.Len()
	stats.Duplicates = agg.Duplicates()
	s.logger.Info("Total unique items scraped: %d", agg.Len())
	return agg.Items(), stats, nil
}

func (s *Scraper) scopes(ctx context.Context) ([]models.BrandScope, error) {
	if !s.cfg.ScopeByBrand {
		return []models.BrandScope{{Name: "All"}}, nil
	}

	page, err := s.browser.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("vinted: open discovery page: %w", err)
	}
	defer page.Close()

	return s.DiscoverBrands(ctx, page)
}
