package services

import (
	"sort"

	"catalog-scraper/models"
)

// Rank returns a copy of items ordered by popularity, highest first.
// Items with equal popularity keep their extraction order.
func Rank(items []*models.ItemRecord) []*models.ItemRecord {
	ranked := make([]*models.ItemRecord, len(items))
	copy(ranked, items)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Popularity > ranked[j].Popularity
	})
	return ranked
}
