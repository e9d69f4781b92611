package models

// BrandScope is one brand facet discovered on the catalog filter bar.
// An empty ID means the unscoped catalog query.
type BrandScope struct {
	ID   string
	Name string
}

// Unscoped reports whether the scope crawls the catalog root without a brand filter.
func (b BrandScope) Unscoped() bool {
	return b.ID == ""
}

// ItemRecord is a single listing extracted from the item grid.
// URL is the identity key; Brand is attached for display only.
type ItemRecord struct {
	Popularity int
	Price      float64
	ImageURL   string
	URL        string
	Brand      string
}

// ReportPage is a contiguous slice of the ranked items rendered as one document.
type ReportPage struct {
	Number int
	Total  int
	Items  []*ItemRecord
}

// First reports whether this is the first page of the report.
func (p *ReportPage) First() bool { return p.Number <= 1 }

// Last reports whether this is the final page of the report.
func (p *ReportPage) Last() bool { return p.Number >= p.Total }

// RunStats collects diagnostics for a single pipeline run.
type RunStats struct {
	Scopes      int
	Pages       int
	Extracted   int
	Retained    int
	Duplicates  int
	BelowFloor  int
	Failures    map[string]int
	ScopeCounts map[string]int
}

// NewRunStats returns a RunStats with its maps initialised.
func NewRunStats() *RunStats {
	return &RunStats{
		Failures:    make(map[string]int),
		ScopeCounts: make(map[string]int),
	}
}

// FailureTotal returns the number of entries skipped because extraction failed.
func (s *RunStats) FailureTotal() int {
	total := 0
	for _, n := range s.Failures {
		total += n
	}
	return total
}

// RunSummary holds the figures printed at the end of a run.
type RunSummary struct {
	TotalItems   int
	AveragePrice float64
	MinPrice     float64
	MaxPrice     float64
	MostPopular  []*ItemRecord
	ItemsByBrand map[string]int
	Stats        *RunStats
}
