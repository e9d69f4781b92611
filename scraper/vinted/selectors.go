package vinted

// Selectors holds every CSS selector matched against catalog markup.
// The site's class names change between releases; keep them all here.
type Selectors struct {
	RegionModalClose string
	CookieAccept     string

	ContentContainer    string
	FilterBar           string
	FilterGroup         string
	BrandOption         string
	BrandIdentifier     string
	BrandNameCandidates []string

	GridItem   string
	Popularity string
	Price      string
	Image      string
	DetailLink string
}

// DefaultSelectors matches the catalog markup as of mid-2025.
func DefaultSelectors() Selectors {
	return Selectors{
		RegionModalClose: "button[data-testid='domain-select-modal-close-button']",
		CookieAccept:     "button[id='onetrust-accept-btn-handler']",

		ContentContainer: "section.content-container",
		FilterBar:        "div.u-flexbox.u-flex-wrap",
		FilterGroup:      "div.u-ui-margin-right-regular.u-ui-margin-bottom-regular",
		BrandOption:      "li.pile__element",
		BrandIdentifier:  "[data-testid^='selectable-item-brand-']",
		BrandNameCandidates: []string{
			".web_ui__Cell__title",
			"[data-testid$='--title']",
			"span.web_ui__Text__text",
		},

		GridItem:   "div.feed-grid__item-content",
		Popularity: "span.web_ui__Text__text.web_ui__Text__caption.web_ui__Text__left",
		Price:      "p.web_ui__Text__text.web_ui__Text__caption.web_ui__Text__left.web_ui__Text__muted",
		Image:      "img",
		DetailLink: "a.new-item-box__overlay.new-item-box__overlay--clickable",
	}
}

// filterButtons selects the trigger button of every filter group, in page order.
func (s Selectors) filterButtons() string {
	return s.ContentContainer + " " + s.FilterBar + " " + s.FilterGroup + " button"
}
