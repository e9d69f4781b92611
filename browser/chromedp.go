package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

type chromedpBrowser struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancel      context.CancelFunc
	navTimeout  time.Duration
}

func newChromedpBrowser(ctx context.Context, chromeBin string, headless bool, navTimeout time.Duration) (*chromedpBrowser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)

	// Suppress chromedp log noise
	browserCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// The first Run starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		cancelAlloc()
		return nil, fmt.Errorf("chromedp: start browser: %w", err)
	}

	return &chromedpBrowser{
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
		browserCtx:  browserCtx,
		cancel:      cancel,
		navTimeout:  navTimeout,
	}, nil
}

func (b *chromedpBrowser) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("chromedp: open tab: %w", err)
	}
	return &chromedpPage{ctx: tabCtx, cancel: cancel, navTimeout: b.navTimeout}, nil
}

func (b *chromedpBrowser) Close() error {
	b.cancel()
	b.cancelAlloc()
	return nil
}

type chromedpPage struct {
	ctx        context.Context
	cancel     context.CancelFunc
	navTimeout time.Duration
}

// run executes actions on the tab, aborting when the caller's ctx is done.
func (p *chromedpPage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx := p.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(p.ctx, timeout)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, p.cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (p *chromedpPage) Navigate(ctx context.Context, url string) error {
	err := p.run(ctx, p.navTimeout, chromedp.Navigate(url))
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: load %s after %v", ErrTimeout, url, p.navTimeout)
	}
	if err != nil {
		return fmt.Errorf("chromedp: navigate %s: %w", url, err)
	}
	return nil
}

func (p *chromedpPage) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	err := p.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %s after %v", ErrTimeout, selector, timeout)
	}
	if err != nil {
		return fmt.Errorf("chromedp: wait for %s: %w", selector, err)
	}
	return nil
}

func (p *chromedpPage) Snapshot(ctx context.Context, selector string) (*goquery.Selection, error) {
	var html string
	script := `(function(){var e=document.querySelector(` + strconv.Quote(selector) + `);return e?e.outerHTML:"";})()`
	if err := p.run(ctx, 0, chromedp.Evaluate(script, &html)); err != nil {
		return nil, fmt.Errorf("chromedp: snapshot %s: %w", selector, err)
	}
	if html == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return parseSnapshot(html, selector)
}

func (p *chromedpPage) Click(ctx context.Context, selector string, nth int) error {
	var nodes []*cdp.Node
	if err := p.run(ctx, 0, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return fmt.Errorf("chromedp: query %s: %w", selector, err)
	}
	if nth < 0 || nth >= len(nodes) {
		return fmt.Errorf("%w: %s[%d] (%d matches)", ErrNotFound, selector, nth, len(nodes))
	}
	if err := p.run(ctx, 0, chromedp.MouseClickNode(nodes[nth])); err != nil {
		return fmt.Errorf("chromedp: click %s[%d]: %w", selector, nth, err)
	}
	return nil
}

func (p *chromedpPage) Close() error {
	p.cancel()
	return nil
}
