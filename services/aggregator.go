package services

import "catalog-scraper/models"

// Aggregator accumulates items across brand scopes, keeping the first
// record seen for every detail URL. It is owned by a single run.
type Aggregator struct {
	seen       map[string]struct{}
	items      []*models.ItemRecord
	duplicates int
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{seen: make(map[string]struct{})}
}

// Add retains item and returns true if its URL has not been seen before.
// A repeated URL is discarded entirely; the earlier record is left untouched.
func (a *Aggregator) Add(item *models.ItemRecord) bool {
	if _, dup := a.seen[item.URL]; dup {
		a.duplicates++
		return false
	}
	a.seen[item.URL] = struct{}{}
	a.items = append(a.items, item)
	return true
}

// Items returns the retained records in the order they were added.
func (a *Aggregator) Items() []*models.ItemRecord {
	return a.items
}

func (a *Aggregator) Len() int        { return len(a.items) }
func (a *Aggregator) Duplicates() int { return a.duplicates }
