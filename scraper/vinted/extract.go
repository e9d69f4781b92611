package vinted

import (
	"context"
	"errors"

	"github.com/PuerkitoBio/goquery"

	"catalog-scraper/browser"
	"catalog-scraper/models"
	"catalog-scraper/services"
)

// ExtractScope walks the result pages of scope from page 1 until a page
// adds no new item or the grid does not render. Items are added to agg,
// which is shared across scopes; the ones first seen here are returned.
// Only cancellation of ctx is reported as an error.
func (s *Scraper) ExtractScope(ctx context.Context, page browser.Page, scope models.BrandScope,
	agg *services.Aggregator, stats *models.RunStats) ([]*models.ItemRecord, error) {
	var found []*models.ItemRecord

	for n := 1; ; n++ {
		if s.cfg.MaxPages > 0 && n > s.cfg.MaxPages {
			s.logger.Info("Reached page cap %d for %s", s.cfg.MaxPages, scope.Name)
			break
		}

		pageURL, err := ScopeURL(s.cfg.CatalogURL, scope, n)
		if err != nil {
			return found, err
		}
		if err := s.throttle.Wait(ctx); err != nil {
			return found, err
		}

		s.logger.Info("Scraping %s page %d...", scope.Name, n)
		stats.Pages++

		added, err := s.extractPage(ctx, page, pageURL, scope, agg, stats)
		if err != nil {
			if ctx.Err() != nil {
				return found, ctx.Err()
			}
			if errors.Is(err, browser.ErrTimeout) {
				s.logger.Info("No items rendered on page %d, ending %s: %v", n, scope.Name, err)
			} else {
				s.logger.Warn("Page %d of %s failed, ending scope: %v", n, scope.Name, err)
			}
			break
		}

		found = append(found, added...)
		s.logger.Info("Page %d scraped, %d unique items added", n, len(added))
		if len(added) == 0 {
			break
		}
	}

	stats.ScopeCounts[scope.Name] += len(found)
	return found, nil
}

func (s *Scraper) extractPage(ctx context.Context, page browser.Page, pageURL string, scope models.BrandScope,
	agg *services.Aggregator, stats *models.RunStats) ([]*models.ItemRecord, error) {
	if err := page.Navigate(ctx, pageURL); err != nil {
		return nil, err
	}
	if err := page.WaitFor(ctx, s.sel.GridItem, s.cfg.WaitTimeout); err != nil {
		return nil, err
	}
	body, err := page.Snapshot(ctx, "body")
	if err != nil {
		return nil, err
	}

	var added []*models.ItemRecord
	body.Find(s.sel.GridItem).Each(func(i int, entry *goquery.Selection) {
		res := ParseItem(entry, s.sel)
		if !res.OK() {
			stats.Failures[res.Err.Key()]++
			s.logger.Warn("Error extracting item %d: %v", i, res.Err)
			return
		}
		stats.Extracted++

		item := res.Item
		if item.Popularity < s.cfg.PopularityFloor {
			stats.BelowFloor++
			return
		}
		if !scope.Unscoped() {
			item.Brand = scope.Name
		}
		if !agg.Add(item) {
			s.logger.Debug("Skipping duplicate: %s", item.URL)
			return
		}
		added = append(added, item)
	})

	return added, nil
}
