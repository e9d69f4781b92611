package vinted

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-scraper/browser"
	"catalog-scraper/browser/browsertest"
	"catalog-scraper/config"
	"catalog-scraper/models"
	"catalog-scraper/services"
	"catalog-scraper/utils"
)

var filterLabels = []string{"Kategorie", "Größe", "Preis", "Marke"}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.CatalogURL = testRoot
	cfg.SettleDelay = 0
	cfg.PageDelay = 0
	cfg.WaitTimeout = 10 * time.Millisecond
	return cfg
}

func newTestScraper(cfg *config.Config, b *browsertest.Browser) *Scraper {
	return New(cfg, utils.NewLoggerTo(io.Discard), b)
}

func scopeURL(t *testing.T, scope models.BrandScope, page int) string {
	t.Helper()
	u, err := ScopeURL(testRoot, scope, page)
	require.NoError(t, err)
	return u
}

// withBrands serves a catalog root whose brand filter opens onto options.
func withBrands(b *browsertest.Browser, options ...string) {
	b.Pages[testRoot] = catalogRoot(true, filterLabels, "Marke")
	b.OnClick[DefaultSelectors().filterButtons()] = catalogRoot(false, filterLabels, "Marke", options...)
}

func TestScopeURL(t *testing.T) {
	u, err := ScopeURL("https://catalog.test/catalog?search=jeans&page=1&brand_ids[]=5", models.BrandScope{ID: "7", Name: "Zara"}, 2)
	require.NoError(t, err)
	assert.Equal(t, "https://catalog.test/catalog?brand_ids%5B%5D=7&page=2&search=jeans", u)

	u, err = ScopeURL("https://catalog.test/catalog?search=jeans&brand_ids[]=5", models.BrandScope{Name: "All"}, 3)
	require.NoError(t, err)
	assert.Equal(t, "https://catalog.test/catalog?page=3&search=jeans", u)
}

func TestDiscoverBrandsByLabel(t *testing.T) {
	b := browsertest.New()
	withBrands(b,
		brandOption("53", "Levi's"),
		brandOption("14", ""),
		brandOption("abc", "No id"),
		brandOption("53", "Levi's again"),
		brandOption("88", "Zara"),
	)
	s := newTestScraper(testConfig(), b)

	page, err := b.NewPage(context.Background())
	require.NoError(t, err)

	brands, err := s.DiscoverBrands(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, []models.BrandScope{
		{ID: "53", Name: "Levi's"},
		{ID: "14", Name: "Brand_14"},
		{ID: "88", Name: "Zara"},
	}, brands)
	assert.Equal(t, []string{
		DefaultSelectors().RegionModalClose + "[0]",
		DefaultSelectors().filterButtons() + "[3]",
	}, b.Clicks)
}

func TestDiscoverBrandsPositionalFallback(t *testing.T) {
	labels := []string{"Category", "Size", "Brand"}
	b := browsertest.New()
	b.Pages[testRoot] = catalogRoot(false, labels, "Brand")
	b.OnClick[DefaultSelectors().filterButtons()] = catalogRoot(false, labels, "Brand", brandOption("1", "Acme"))
	s := newTestScraper(testConfig(), b)

	page, err := b.NewPage(context.Background())
	require.NoError(t, err)

	brands, err := s.DiscoverBrands(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, []models.BrandScope{{ID: "1", Name: "Acme"}}, brands)
	assert.Equal(t, []string{DefaultSelectors().filterButtons() + "[2]"}, b.Clicks)
}

func TestDiscoverBrandsMissingContentIsFatal(t *testing.T) {
	b := browsertest.New()
	b.Pages[testRoot] = `<html><body><p>maintenance</p></body></html>`
	s := newTestScraper(testConfig(), b)

	_, _, err := s.Scrape(context.Background())
	require.ErrorIs(t, err, ErrNoContent)
	assert.Equal(t, b.PagesOpened, b.PagesClosed)
}

func TestDiscoverBrandsWithoutFilterBar(t *testing.T) {
	b := browsertest.New()
	b.Pages[testRoot] = `<html><body><section class="content-container"></section></body></html>`
	s := newTestScraper(testConfig(), b)

	page, err := b.NewPage(context.Background())
	require.NoError(t, err)

	brands, err := s.DiscoverBrands(context.Background(), page)
	require.NoError(t, err)
	assert.Empty(t, brands)
}

func TestScrapeDeduplicatesAcrossScopes(t *testing.T) {
	b := browsertest.New()
	withBrands(b, brandOption("1", "A"), brandOption("2", "B"))
	scopeA := models.BrandScope{ID: "1", Name: "A"}
	scopeB := models.BrandScope{ID: "2", Name: "B"}
	b.Pages[scopeURL(t, scopeA, 1)] = gridPage(
		fixtureItem{url: "u1", likes: "3", price: "5,00 €"},
		fixtureItem{url: "u2", likes: "10", price: "8,50 €"},
	)
	b.Pages[scopeURL(t, scopeB, 1)] = gridPage(
		fixtureItem{url: "u2", likes: "99", price: "1,00 €"},
		fixtureItem{url: "u3", likes: "1", price: "2,00 €"},
	)
	s := newTestScraper(testConfig(), b)

	items, stats, err := s.Scrape(context.Background())
	require.NoError(t, err)

	ranked := services.Rank(items)
	require.Len(t, ranked, 3)
	assert.Equal(t, "u2", ranked[0].URL)
	assert.Equal(t, 10, ranked[0].Popularity)
	assert.Equal(t, "A", ranked[0].Brand)
	assert.Equal(t, "u1", ranked[1].URL)
	assert.Equal(t, 3, ranked[1].Popularity)
	assert.Equal(t, "u3", ranked[2].URL)
	assert.Equal(t, 1, ranked[2].Popularity)

	assert.Equal(t, 2, stats.Scopes)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 3, stats.Retained)
	assert.Equal(t, 4, stats.Extracted)
	assert.Equal(t, 4, stats.Pages, "one filled and one empty page per scope")
	assert.Equal(t, 2, stats.ScopeCounts["A"])
	assert.Equal(t, 1, stats.ScopeCounts["B"])
	assert.Equal(t, 2, b.PagesOpened)
	assert.Equal(t, b.PagesOpened, b.PagesClosed)
}

func TestExtractScopeStopsOnPageWithoutNewItems(t *testing.T) {
	b := browsertest.New()
	scope := models.BrandScope{ID: "1", Name: "A"}
	b.Pages[scopeURL(t, scope, 1)] = gridPage(fixtureItem{url: "u1", likes: "2", price: "1 €"})
	b.Pages[scopeURL(t, scope, 2)] = gridPage(fixtureItem{url: "u1", likes: "2", price: "1 €"})
	b.Pages[scopeURL(t, scope, 3)] = gridPage(fixtureItem{url: "u9", likes: "2", price: "1 €"})
	s := newTestScraper(testConfig(), b)

	page, err := b.NewPage(context.Background())
	require.NoError(t, err)
	stats := models.NewRunStats()
	agg := services.NewAggregator()

	found, err := s.ExtractScope(context.Background(), page, scope, agg, stats)
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Equal(t, []string{scopeURL(t, scope, 1), scopeURL(t, scope, 2)}, b.Visited)
	assert.Equal(t, 1, agg.Duplicates())
}

func TestScrapeStalledPageEndsOnlyItsScope(t *testing.T) {
	b := browsertest.New()
	withBrands(b, brandOption("1", "A"), brandOption("2", "B"))
	scopeA := models.BrandScope{ID: "1", Name: "A"}
	scopeB := models.BrandScope{ID: "2", Name: "B"}
	b.Stalled[scopeURL(t, scopeA, 1)] = true
	b.Pages[scopeURL(t, scopeA, 2)] = gridPage(fixtureItem{url: "never", likes: "1", price: "1 €"})
	b.Pages[scopeURL(t, scopeB, 1)] = gridPage(fixtureItem{url: "u1", likes: "4", price: "2,00 €"})
	s := newTestScraper(testConfig(), b)

	items, stats, err := s.Scrape(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "u1", items[0].URL)
	assert.NotContains(t, b.Visited, scopeURL(t, scopeA, 2))
	assert.Equal(t, 3, stats.Pages, "stalled page of A, then two pages of B")
	assert.Equal(t, 0, stats.ScopeCounts["A"])
}

func TestDiscoverBrandsStalledRootIsFatal(t *testing.T) {
	b := browsertest.New()
	b.Stalled[testRoot] = true
	s := newTestScraper(testConfig(), b)

	_, _, err := s.Scrape(context.Background())
	require.ErrorIs(t, err, ErrNoContent)
	require.ErrorIs(t, err, browser.ErrTimeout)
}

func TestExtractScopeFloorAndFailures(t *testing.T) {
	b := browsertest.New()
	scope := models.BrandScope{ID: "1", Name: "A"}
	broken := `<div class="feed-grid__item-content">` + likesSpan("50") + priceP("1 €") + `</div>`
	b.Pages[scopeURL(t, scope, 1)] = `<html><body>` +
		gridItem(fixtureItem{url: "low", likes: "2", price: "1 €"}) +
		broken +
		gridItem(fixtureItem{url: "high", likes: "8", price: "12,50 €", image: "img.jpg"}) +
		`</body></html>`
	b.Pages[scopeURL(t, scope, 2)] = gridPage(fixtureItem{url: "low2", likes: "New", price: "1 €"})

	cfg := testConfig()
	cfg.PopularityFloor = 5
	s := newTestScraper(cfg, b)

	page, err := b.NewPage(context.Background())
	require.NoError(t, err)
	stats := models.NewRunStats()

	found, err := s.ExtractScope(context.Background(), page, scope, services.NewAggregator(), stats)
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Equal(t, &models.ItemRecord{Popularity: 8, Price: 12.5, ImageURL: "img.jpg", URL: "high", Brand: "A"}, found[0])
	assert.Equal(t, 2, stats.BelowFloor)
	assert.Equal(t, map[string]int{"url: element missing": 1}, stats.Failures)
	assert.Len(t, b.Visited, 2, "a page of below-floor items ends the scope")
}

func TestExtractScopeMaxPages(t *testing.T) {
	b := browsertest.New()
	scope := models.BrandScope{ID: "1", Name: "A"}
	b.Pages[scopeURL(t, scope, 1)] = gridPage(fixtureItem{url: "u1", likes: "1", price: "1 €"})
	b.Pages[scopeURL(t, scope, 2)] = gridPage(fixtureItem{url: "u2", likes: "1", price: "1 €"})
	cfg := testConfig()
	cfg.MaxPages = 1
	s := newTestScraper(cfg, b)

	page, err := b.NewPage(context.Background())
	require.NoError(t, err)

	found, err := s.ExtractScope(context.Background(), page, scope, services.NewAggregator(), models.NewRunStats())
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Len(t, b.Visited, 1)
}

func TestScrapeUnscoped(t *testing.T) {
	b := browsertest.New()
	all := models.BrandScope{Name: "All"}
	b.Pages[scopeURL(t, all, 1)] = gridPage(fixtureItem{url: "u1", likes: "4", price: "1 €"})
	cfg := testConfig()
	cfg.ScopeByBrand = false
	s := newTestScraper(cfg, b)

	items, stats, err := s.Scrape(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Empty(t, items[0].Brand)
	assert.Equal(t, 1, stats.Scopes)
	assert.NotContains(t, b.Visited, testRoot)
	assert.Equal(t, 1, b.PagesOpened)
}

func TestScrapeNoScopes(t *testing.T) {
	b := browsertest.New()
	b.Pages[testRoot] = `<html><body><section class="content-container"></section></body></html>`
	s := newTestScraper(testConfig(), b)

	items, stats, err := s.Scrape(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 0, stats.Scopes)
	assert.Len(t, services.Paginate(items, 500), 1)
}

func TestScrapeCancelled(t *testing.T) {
	b := browsertest.New()
	withBrands(b, brandOption("1", "A"))
	s := newTestScraper(testConfig(), b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.Scrape(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, b.PagesOpened, b.PagesClosed)
}
