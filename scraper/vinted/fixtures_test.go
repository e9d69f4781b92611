package vinted

import (
	"fmt"
	"strings"
)

const testRoot = "https://catalog.test/catalog?search_text=jeans&page=1"

type fixtureItem struct {
	url   string
	likes string
	price string
	image string
}

func likesSpan(likes string) string {
	return `<span class="web_ui__Text__text web_ui__Text__caption web_ui__Text__left">` + likes + `</span>`
}

func priceP(price string) string {
	return `<p class="web_ui__Text__text web_ui__Text__caption web_ui__Text__left web_ui__Text__muted">` + price + `</p>`
}

func detailLink(href string) string {
	return `<a class="new-item-box__overlay new-item-box__overlay--clickable" href="` + href + `"></a>`
}

func gridItem(it fixtureItem) string {
	var b strings.Builder
	b.WriteString(`<div class="feed-grid__item-content">`)
	if it.image != "" {
		b.WriteString(`<img src="` + it.image + `">`)
	}
	b.WriteString(likesSpan(it.likes))
	b.WriteString(priceP(it.price))
	b.WriteString(detailLink(it.url))
	b.WriteString(`</div>`)
	return b.String()
}

func gridPage(items ...fixtureItem) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="feed-grid">`)
	for _, it := range items {
		b.WriteString(gridItem(it))
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func brandOption(id, name string) string {
	return fmt.Sprintf(`<li class="pile__element"><div class="web_ui__Cell__cell web_ui__Cell__default web_ui__Cell__navigating" data-testid="selectable-item-brand-%s--title"><div class="web_ui__Cell__title">%s</div></div></li>`, id, name)
}

// catalogRoot renders the catalog landing page. labels name the filter
// buttons in order; options are rendered inside the group labelled brandLabel.
func catalogRoot(modal bool, labels []string, brandLabel string, options ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	if modal {
		b.WriteString(`<div class="modal"><button data-testid="domain-select-modal-close-button">x</button></div>`)
	}
	b.WriteString(`<section class="content-container"><div class="u-flexbox u-flex-wrap">`)
	for _, label := range labels {
		b.WriteString(`<div class="u-ui-margin-right-regular u-ui-margin-bottom-regular"><button>` + label + `</button>`)
		if label == brandLabel && len(options) > 0 {
			b.WriteString(`<ul>` + strings.Join(options, "") + `</ul>`)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div></section></body></html>`)
	return b.String()
}
