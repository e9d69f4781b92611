package vinted

import (
	"fmt"
	"net/url"
	"strconv"

	"catalog-scraper/models"
)

const (
	brandParam = "brand_ids[]"
	pageParam  = "page"
)

// ScopeURL returns the catalog URL for one result page of scope.
// Existing brand and page parameters on root are replaced.
func ScopeURL(root string, scope models.BrandScope, page int) (string, error) {
	u, err := url.Parse(root)
	if err != nil {
		return "", fmt.Errorf("vinted: parse catalog url: %w", err)
	}

	q := u.Query()
	q.Del(brandParam)
	if !scope.Unscoped() {
		q.Set(brandParam, scope.ID)
	}
	q.Set(pageParam, strconv.Itoa(page))
	u.RawQuery = q.Encode()

	return u.String(), nil
}
