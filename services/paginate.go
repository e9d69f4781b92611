package services

import "catalog-scraper/models"

// Paginate splits items into consecutive pages of size items each; the last
// page may be shorter. No items still yields one empty page. A size of zero
// or less puts everything on a single page.
func Paginate(items []*models.ItemRecord, size int) []*models.ReportPage {
	if size <= 0 || len(items) <= size {
		return []*models.ReportPage{{Number: 1, Total: 1, Items: items}}
	}

	total := (len(items) + size - 1) / size
	pages := make([]*models.ReportPage, 0, total)
	for i := 0; i < total; i++ {
		start := i * size
		end := min(start+size, len(items))
		pages = append(pages, &models.ReportPage{
			Number: i + 1,
			Total:  total,
			Items:  items[start:end],
		})
	}
	return pages
}
