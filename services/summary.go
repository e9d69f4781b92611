package services

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"catalog-scraper/models"
	"catalog-scraper/utils"
)

const (
	topN      = 5
	unbranded = "(unscoped)"
)

type SummaryService struct {
	logger *utils.Logger
}

func NewSummaryService(logger *utils.Logger) *SummaryService {
	return &SummaryService{logger: logger.WithPrefix("summary")}
}

// Generate computes the end-of-run figures over the ranked items.
func (s *SummaryService) Generate(ranked []*models.ItemRecord, stats *models.RunStats) *models.RunSummary {
	if stats == nil {
		stats = models.NewRunStats()
	}
	summary := &models.RunSummary{
		TotalItems:   len(ranked),
		ItemsByBrand: make(map[string]int),
		Stats:        stats,
	}

	var priced int
	var total float64
	for _, item := range ranked {
		brand := item.Brand
		if brand == "" {
			brand = unbranded
		}
		summary.ItemsByBrand[brand]++
		if item.Price <= 0 {
			continue
		}
		if priced == 0 || item.Price < summary.MinPrice {
			summary.MinPrice = item.Price
		}
		if item.Price > summary.MaxPrice {
			summary.MaxPrice = item.Price
		}
		total += item.Price
		priced++
	}
	if priced > 0 {
		summary.AveragePrice = round2(total / float64(priced))
	}

	if len(ranked) > topN {
		summary.MostPopular = ranked[:topN]
	} else {
		summary.MostPopular = ranked
	}

	s.logger.Debug("%d items across %d brands", summary.TotalItems, len(summary.ItemsByBrand))
	return summary
}

// Print renders the summary as tables on w.
func (s *SummaryService) Print(w io.Writer, r *models.RunSummary) {
	overview := newTable(w, "Run overview")
	overview.AppendRows([]table.Row{
		{"Scopes crawled", r.Stats.Scopes},
		{"Pages visited", r.Stats.Pages},
		{"Entries extracted", r.Stats.Extracted},
		{"Items retained", r.TotalItems},
		{"Duplicates discarded", r.Stats.Duplicates},
		{"Below popularity floor", r.Stats.BelowFloor},
		{"Extraction failures", r.Stats.FailureTotal()},
	})
	if r.AveragePrice > 0 {
		overview.AppendSeparator()
		overview.AppendRows([]table.Row{
			{"Average price", fmt.Sprintf("€%.2f", r.AveragePrice)},
			{"Minimum price", fmt.Sprintf("€%.2f", r.MinPrice)},
			{"Maximum price", fmt.Sprintf("€%.2f", r.MaxPrice)},
		})
	}
	overview.Render()

	if len(r.Stats.Failures) > 0 {
		failures := newTable(w, "Extraction failures")
		failures.AppendHeader(table.Row{"Reason", "Entries"})
		for _, kv := range sortedCounts(r.Stats.Failures) {
			failures.AppendRow(table.Row{kv.key, kv.count})
		}
		failures.Render()
	}

	if len(r.MostPopular) > 0 {
		top := newTable(w, fmt.Sprintf("Top %d by likes", len(r.MostPopular)))
		top.AppendHeader(table.Row{"#", "Likes", "Price", "Brand", "URL"})
		for i, item := range r.MostPopular {
			top.AppendRow(table.Row{i + 1, item.Popularity, fmt.Sprintf("€%.2f", item.Price), item.Brand, truncate(item.URL, 60)})
		}
		top.Render()
	}

	if len(r.ItemsByBrand) > 0 {
		brands := newTable(w, "Items by brand")
		brands.AppendHeader(table.Row{"Brand", "Items"})
		for _, kv := range sortedCounts(r.ItemsByBrand) {
			brands.AppendRow(table.Row{kv.key, kv.count})
		}
		brands.Render()
	}
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	t.Style().Title.Align = text.AlignCenter
	return t
}

type keyCount struct {
	key   string
	count int
}

// sortedCounts orders a histogram by count descending, then key.
func sortedCounts(m map[string]int) []keyCount {
	out := make([]keyCount, 0, len(m))
	for k, v := range m {
		out = append(out, keyCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
