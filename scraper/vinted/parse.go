package vinted

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"catalog-scraper/models"
)

var (
	// priceRegexp captures the first comma-decimal, dotted-thousands integer
	// or plain number. Dots are thousands separators unless the number is a
	// plain decimal like 7.99.
	priceRegexp = regexp.MustCompile(`(?:\d{1,3}(?:\.\d{3})+|\d*),\d+|\d{1,3}(?:\.\d{3})+\b|\d+(?:\.\d+)?`)
	// thousandsRegexp matches an integer written with dotted thousands
	thousandsRegexp = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	// brandIDRegexp captures the numeric brand ID embedded in a test ID
	brandIDRegexp = regexp.MustCompile(`selectable-item-brand-(\d+)`)
)

// ExtractionError reports a grid entry whose expected structure is absent.
type ExtractionError struct {
	Field  string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s", e.Field, e.Reason)
}

// Key groups failures for run diagnostics.
func (e *ExtractionError) Key() string {
	return e.Field + ": " + e.Reason
}

// ParseResult is the outcome of extracting one grid entry: either Item or Err is set.
type ParseResult struct {
	Item *models.ItemRecord
	Err  *ExtractionError
}

// OK reports whether the entry produced a record.
func (r ParseResult) OK() bool { return r.Err == nil }

// ParseItem extracts a record from a rendered grid entry. Popularity and
// price degrade to zero on unparsable text; missing elements are failures.
// The image is optional.
func ParseItem(entry *goquery.Selection, sel Selectors) ParseResult {
	popularityEl := entry.Find(sel.Popularity).First()
	if popularityEl.Length() == 0 {
		return ParseResult{Err: &ExtractionError{Field: "popularity", Reason: "element missing"}}
	}

	priceEl := entry.Find(sel.Price).First()
	if priceEl.Length() == 0 {
		return ParseResult{Err: &ExtractionError{Field: "price", Reason: "element missing"}}
	}

	linkEl := entry.Find(sel.DetailLink).First()
	if linkEl.Length() == 0 {
		return ParseResult{Err: &ExtractionError{Field: "url", Reason: "element missing"}}
	}
	href := strings.TrimSpace(linkEl.AttrOr("href", ""))
	if href == "" {
		return ParseResult{Err: &ExtractionError{Field: "url", Reason: "empty href"}}
	}

	image, _ := entry.Find(sel.Image).First().Attr("src")

	return ParseResult{Item: &models.ItemRecord{
		Popularity: ParsePopularity(popularityEl.Text()),
		Price:      ParsePrice(priceEl.Text()),
		ImageURL:   strings.TrimSpace(image),
		URL:        href,
	}}
}

// ParsePopularity returns the like count in text, or 0 unless text is all digits.
func ParsePopularity(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return n
}

// ParsePrice returns the first number in text, reading a comma as the
// decimal separator. "12,50 €" is 12.5, "1.234,50 €" is 1234.5; text
// without digits is 0.
func ParsePrice(text string) float64 {
	match := priceRegexp.FindString(text)
	if match == "" {
		return 0
	}
	switch {
	case strings.Contains(match, ","):
		match = strings.ReplaceAll(match, ".", "")
		match = strings.Replace(match, ",", ".", 1)
	case thousandsRegexp.MatchString(match):
		match = strings.ReplaceAll(match, ".", "")
	}
	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return price
}

// ExtractBrandID returns the digits of a "selectable-item-brand-<digits>"
// identifier, or false when raw does not contain one.
func ExtractBrandID(raw string) (string, bool) {
	m := brandIDRegexp.FindStringSubmatch(raw)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// parseBrandOption reads one entry of the brand filter list.
func parseBrandOption(option *goquery.Selection, sel Selectors) (models.BrandScope, bool) {
	raw, ok := option.Find(sel.BrandIdentifier).First().Attr("data-testid")
	if !ok {
		raw, _ = option.Attr("data-testid")
	}
	id, ok := ExtractBrandID(raw)
	if !ok {
		return models.BrandScope{}, false
	}
	return models.BrandScope{ID: id, Name: brandName(option, sel, id)}, true
}

// brandName tries the candidate lookups in priority order before falling back
// to a synthesized label.
func brandName(option *goquery.Selection, sel Selectors, id string) string {
	for _, candidate := range sel.BrandNameCandidates {
		if name := strings.TrimSpace(option.Find(candidate).First().Text()); name != "" {
			return name
		}
	}
	for _, attr := range []string{"aria-label", "title"} {
		if name := strings.TrimSpace(option.Find("["+attr+"]").First().AttrOr(attr, "")); name != "" {
			return name
		}
	}
	return "Brand_" + id
}
