package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

type rodBrowser struct {
	launcher   *launcher.Launcher
	browser    *rod.Browser
	stealth    bool
	navTimeout time.Duration
}

func newRodBrowser(chromeBin string, headless, useStealth bool, navTimeout time.Duration) (*rodBrowser, error) {
	l := launcher.New().
		Headless(headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled")
	if chromeBin != "" {
		l = l.Bin(chromeBin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("rod: launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("rod: connect browser: %w", err)
	}

	return &rodBrowser{launcher: l, browser: b, stealth: useStealth, navTimeout: navTimeout}, nil
}

func (b *rodBrowser) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		page *rod.Page
		err  error
	)
	if b.stealth {
		page, err = stealth.Page(b.browser)
	} else {
		page, err = b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, fmt.Errorf("rod: open page: %w", err)
	}
	return &rodPage{page: page, navTimeout: b.navTimeout}, nil
}

func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Cleanup()
	return err
}

type rodPage struct {
	page       *rod.Page
	navTimeout time.Duration
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx).Timeout(p.navTimeout)
	defer page.CancelTimeout()

	err := page.Navigate(url)
	if err == nil {
		err = page.WaitLoad()
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: load %s after %v", ErrTimeout, url, p.navTimeout)
	}
	if err != nil {
		return fmt.Errorf("rod: navigate %s: %w", url, err)
	}
	return nil
}

func (p *rodPage) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	page := p.page.Context(ctx).Timeout(timeout)
	defer page.CancelTimeout()

	el, err := page.Element(selector)
	if err == nil {
		err = el.WaitVisible()
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %s after %v", ErrTimeout, selector, timeout)
	}
	if err != nil {
		return fmt.Errorf("rod: wait for %s: %w", selector, err)
	}
	return nil
}

func (p *rodPage) Snapshot(ctx context.Context, selector string) (*goquery.Selection, error) {
	has, el, err := p.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, fmt.Errorf("rod: query %s: %w", selector, err)
	}
	if !has {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	html, err := el.HTML()
	if err != nil {
		return nil, fmt.Errorf("rod: snapshot %s: %w", selector, err)
	}
	return parseSnapshot(html, selector)
}

func (p *rodPage) Click(ctx context.Context, selector string, nth int) error {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return fmt.Errorf("rod: query %s: %w", selector, err)
	}
	if nth < 0 || nth >= len(els) {
		return fmt.Errorf("%w: %s[%d] (%d matches)", ErrNotFound, selector, nth, len(els))
	}
	if err := els[nth].Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("rod: click %s[%d]: %w", selector, nth, err)
	}
	return nil
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
