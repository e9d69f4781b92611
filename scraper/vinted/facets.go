package vinted

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"catalog-scraper/browser"
	"catalog-scraper/models"
	"catalog-scraper/utils"
)

// ErrNoContent means the catalog page never rendered its content container.
var ErrNoContent = errors.New("vinted: catalog content did not render")

// DiscoverBrands opens the catalog root and reads the options of the brand
// filter. Only a missing content container is fatal; every later miss
// yields an empty list.
func (s *Scraper) DiscoverBrands(ctx context.Context, page browser.Page) ([]models.BrandScope, error) {
	if err := page.Navigate(ctx, s.cfg.CatalogURL); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoContent, err)
	}
	if err := utils.Sleep(ctx, s.cfg.SettleDelay); err != nil {
		return nil, err
	}

	s.dismiss(ctx, page, s.sel.RegionModalClose, "region selection modal")
	s.dismiss(ctx, page, s.sel.CookieAccept, "cookie banner")

	if err := page.WaitFor(ctx, s.sel.ContentContainer, s.cfg.WaitTimeout); err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			return nil, fmt.Errorf("%w: %w", ErrNoContent, err)
		}
		return nil, fmt.Errorf("vinted: wait for content: %w", err)
	}

	content, err := page.Snapshot(ctx, s.sel.ContentContainer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoContent, err)
	}

	groups := s.filterGroups(content)
	idx := brandFilterIndex(groups, s.cfg.BrandFilterLabel, s.cfg.BrandFilterIndex)
	if idx < 0 {
		s.logger.Warn("Brand filter not found among %d filters", groups.Length())
		return nil, nil
	}

	button := groups.Eq(idx).Find("button").First()
	nth := content.Find(s.sel.FilterBar + " " + s.sel.FilterGroup + " button").IndexOfSelection(button)
	if nth < 0 {
		s.logger.Warn("Brand filter %d has no trigger button", idx)
		return nil, nil
	}
	if err := page.Click(ctx, s.sel.filterButtons(), nth); err != nil {
		s.logger.Warn("Could not open brand filter: %v", err)
		return nil, nil
	}

	if err := page.WaitFor(ctx, s.sel.BrandOption, s.cfg.WaitTimeout); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("Brand list did not open: %v", err)
		return nil, nil
	}

	content, err = page.Snapshot(ctx, s.sel.ContentContainer)
	if err != nil {
		s.logger.Warn("Could not read brand list: %v", err)
		return nil, nil
	}

	options := s.filterGroups(content).Eq(idx).Find(s.sel.BrandOption)
	if options.Length() == 0 {
		// Some layouts render the dropdown outside the filter group.
		options = content.Find(s.sel.BrandOption)
	}

	brands := make([]models.BrandScope, 0, options.Length())
	seen := make(map[string]struct{})
	options.Each(func(i int, option *goquery.Selection) {
		brand, ok := parseBrandOption(option, s.sel)
		if !ok {
			s.logger.Debug("Skipping brand option %d without a parsable id", i)
			return
		}
		if _, dup := seen[brand.ID]; dup {
			return
		}
		seen[brand.ID] = struct{}{}
		brands = append(brands, brand)
	})

	s.logger.Info("Discovered %d brands", len(brands))
	return brands, nil
}

func (s *Scraper) filterGroups(content *goquery.Selection) *goquery.Selection {
	return content.Find(s.sel.FilterBar).First().Find(s.sel.FilterGroup)
}

// dismiss clicks an interstitial control if it is present.
func (s *Scraper) dismiss(ctx context.Context, page browser.Page, selector, what string) {
	if _, err := page.Snapshot(ctx, selector); err != nil {
		s.logger.Debug("No %s to dismiss", what)
		return
	}
	if err := page.Click(ctx, selector, 0); err != nil {
		s.logger.Warn("Could not dismiss %s: %v", what, err)
		return
	}
	s.logger.Debug("Dismissed %s", what)
}

// brandFilterIndex finds the filter whose button mentions label, falling
// back to the fixed position used by older layouts.
func brandFilterIndex(groups *goquery.Selection, label string, fallback int) int {
	label = strings.ToLower(strings.TrimSpace(label))
	if label != "" {
		idx := -1
		groups.EachWithBreak(func(i int, g *goquery.Selection) bool {
			text := strings.ToLower(g.Find("button").First().Text())
			if strings.Contains(text, label) {
				idx = i
				return false
			}
			return true
		})
		if idx >= 0 {
			return idx
		}
	}
	if fallback >= 0 && fallback < groups.Length() {
		return fallback
	}
	return -1
}
