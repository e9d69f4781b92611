// Package browser wraps the headless browser used to render catalog pages.
//
// Only navigation, waiting and clicking happen in the live page. Reads go
// through Snapshot, which returns the rendered subtree as a goquery selection
// so element lookups, inner text and attributes are plain DOM queries.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"catalog-scraper/config"
	"catalog-scraper/utils"
)

var (
	// ErrTimeout is returned when a page does not load, or a selector does
	// not become visible, in time.
	ErrTimeout = errors.New("browser: wait timed out")
	// ErrNotFound is returned by Snapshot and Click when nothing matches the selector.
	ErrNotFound = errors.New("browser: no element matches selector")
)

// Browser owns a browser process and hands out pages (tabs).
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single tab. Navigate and WaitFor are bounded and report
// ErrTimeout on expiry.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	Snapshot(ctx context.Context, selector string) (*goquery.Selection, error)
	Click(ctx context.Context, selector string, nth int) error
	Close() error
}

// Launch starts the browser selected by cfg.Driver, retrying failed launches.
func Launch(ctx context.Context, cfg *config.Config, logger *utils.Logger) (Browser, error) {
	chromeBin := cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = FindChromeBinary()
	}
	logger.Info("Launching %s driver (headless=%v, binary=%q)", cfg.Driver, cfg.Headless, chromeBin)

	retry := &utils.RetryConfig{
		MaxAttempts: cfg.LaunchRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}

	var b Browser
	err := retry.Do(ctx, "launch-browser", func() error {
		var err error
		switch cfg.Driver {
		case config.DriverRod:
			b, err = newRodBrowser(chromeBin, cfg.Headless, cfg.Stealth, cfg.NavigateTimeout)
		default:
			b, err = newChromedpBrowser(ctx, chromeBin, cfg.Headless, cfg.NavigateTimeout)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// FindChromeBinary locates a Chrome/Chromium binary, or returns "" to let
// the driver use its own lookup.
func FindChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// parseSnapshot turns the outer HTML of an element back into a selection
// rooted at that element.
func parseSnapshot(outerHTML, selector string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(outerHTML))
	if err != nil {
		return nil, fmt.Errorf("browser: parse snapshot of %q: %w", selector, err)
	}
	if sel := doc.Find(selector).First(); sel.Length() > 0 {
		return sel, nil
	}
	// Compound selectors may not match once the element is cut from its
	// ancestors; fall back to the parsed body.
	return doc.Find("body").Children().First(), nil
}
