// Package browsertest provides an in-memory browser.Browser serving fixed
// HTML documents, for tests that must not start a real browser.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"catalog-scraper/browser"
)

const blankPage = "<html><head></head><body></body></html>"

// Browser serves Pages[url] for every navigation. Unknown URLs render a
// blank document, so waits on them time out.
type Browser struct {
	Pages map[string]string
	// OnClick maps a selector to the document shown after it is clicked.
	OnClick map[string]string
	// Stalled lists URLs whose load never completes; navigating to them
	// fails with browser.ErrTimeout.
	Stalled map[string]bool

	Visited     []string
	Clicks      []string
	PagesOpened int
	PagesClosed int
	Closed      bool
}

// New returns an empty fake browser.
func New() *Browser {
	return &Browser{
		Pages:   make(map[string]string),
		OnClick: make(map[string]string),
		Stalled: make(map[string]bool),
	}
}

func (b *Browser) NewPage(ctx context.Context) (browser.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.PagesOpened++
	p := &Page{b: b}
	if err := p.load(blankPage); err != nil {
		return nil, err
	}
	return p, nil
}

func (b *Browser) Close() error {
	b.Closed = true
	return nil
}

// Page is a tab of the fake browser.
type Page struct {
	b   *Browser
	doc *goquery.Document
}

func (p *Page) load(html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return err
	}
	p.doc = doc
	return nil
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.b.Visited = append(p.b.Visited, url)
	if p.b.Stalled[url] {
		return fmt.Errorf("%w: load %s", browser.ErrTimeout, url)
	}
	html, ok := p.b.Pages[url]
	if !ok {
		html = blankPage
	}
	return p.load(html)
}

func (p *Page) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w: %s after %v", browser.ErrTimeout, selector, timeout)
	}
	return nil
}

func (p *Page) Snapshot(ctx context.Context, selector string) (*goquery.Selection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel := p.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
	}
	return sel, nil
}

func (p *Page) Click(ctx context.Context, selector string, nth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	matches := p.doc.Find(selector)
	if nth < 0 || nth >= matches.Length() {
		return fmt.Errorf("%w: %s[%d]", browser.ErrNotFound, selector, nth)
	}
	p.b.Clicks = append(p.b.Clicks, fmt.Sprintf("%s[%d]", selector, nth))
	if html, ok := p.b.OnClick[selector]; ok {
		return p.load(html)
	}
	return nil
}

func (p *Page) Close() error {
	p.b.PagesClosed++
	return nil
}
