package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/storelift/smartstore-lister/internal/browser"
	"github.com/storelift/smartstore-lister/internal/models"
	"github.com/storelift/smartstore-lister/internal/parser"
	"github.com/storelift/smartstore-lister/internal/selectors"
)

var (
	ErrDriverInit    = errors.New("browser driver could not be started")
	ErrCrawlerClosed = errors.New("crawler is closed")
)

const (
	// settleDelay gives client-side rendering time to finish after navigation.
	settleDelay = 3 * time.Second
	// elementTimeout bounds the wait for each selector to appear.
	elementTimeout = 10 * time.Second
)

type state int

const (
	stateUninitialized state = iota
	stateReady
	stateClosed
)

// Crawler drives a headless browser session to extract product data from a
// source page. The session is started lazily on first use and must be
// released with Close; one Crawler serves one submission run.
type Crawler struct {
	opts    *browser.Options
	browser *browser.Browser
	state   state
	logger  *slog.Logger
}

func New(opts *browser.Options, logger *slog.Logger) *Crawler {
	if opts == nil {
		opts = browser.DefaultOptions()
	}
	return &Crawler{
		opts:   opts,
		logger: logger.With("component", "crawler"),
	}
}

// Initialize launches the browser session. Calling it on an already
// initialized crawler is a no-op; a closed crawler cannot be reopened.
func (c *Crawler) Initialize() error {
	switch c.state {
	case stateReady:
		return nil
	case stateClosed:
		return ErrCrawlerClosed
	}

	b, err := browser.New(c.opts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDriverInit, err)
	}

	c.browser = b
	c.state = stateReady
	return nil
}

// Extract navigates to the product URL and reads every field the profile
// locates. Secondary fields that are missing or never appear degrade to empty
// values; deciding which empty fields are fatal is the pipeline's job.
func (c *Crawler) Extract(ctx context.Context, url string, profile selectors.Profile) (*models.ProductInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.Initialize(); err != nil {
		return nil, err
	}

	c.logger.Info("extracting product page", "url", url)

	page, err := c.browser.NewPage(c.opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	time.Sleep(settleDelay)

	c.awaitSelectors(page, profile)

	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}

	info, err := parser.ParseProduct(html, url, profile)
	if err != nil {
		return nil, err
	}

	c.logger.Info("extraction complete",
		"title", info.Title,
		"price", info.Price,
		"images", len(info.Images),
		"options", len(info.Options),
	)

	return info, nil
}

// awaitSelectors waits up to the element timeout for each locator to attach.
// A selector that never shows up is logged and skipped; the parser will
// simply find nothing for it.
func (c *Crawler) awaitSelectors(page playwright.Page, profile selectors.Profile) {
	for _, sel := range []string{
		profile.Title,
		profile.Price,
		profile.Description,
		profile.Images,
		profile.Options,
		profile.Origin,
	} {
		if sel == "" {
			continue
		}
		_, err := page.WaitForSelector(sel, playwright.PageWaitForSelectorOptions{
			State:   playwright.WaitForSelectorStateAttached,
			Timeout: playwright.Float(float64(elementTimeout.Milliseconds())),
		})
		if err != nil {
			c.logger.Warn("selector did not appear", "selector", sel, "error", err)
		}
	}
}

// Close releases the browser session. Safe to call repeatedly and from any
// state; it never reports an error.
func (c *Crawler) Close() {
	if c.state == stateReady && c.browser != nil {
		if err := c.browser.Close(); err != nil {
			c.logger.Warn("error while closing browser", "error", err)
		}
		c.browser = nil
	}
	c.state = stateClosed
}
