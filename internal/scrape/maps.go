package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/domain-scraper/internal/logging"
)

const mapsSearchBase = "https://www.google.com/maps/search/"

// MapsOptions configures a MapsScraper
type MapsOptions struct {
	Headless  bool
	UserAgent string
	// Wait bounds the time spent waiting for a place panel
	Wait   time.Duration
	Logger *zap.Logger
}

// MapsScraper looks a domain up on Google Maps in a headless browser and
// reads the place name and address panel
type MapsScraper struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	wait        time.Duration
	logger      *zap.Logger
}

// NewMapsScraper starts a browser allocator. Call Close when done.
func NewMapsScraper(opts MapsOptions) *MapsScraper {
	if opts.Wait <= 0 {
		opts.Wait = 10 * time.Second
	}
	flags := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if opts.UserAgent != "" {
		flags = append(flags, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), flags...)
	return &MapsScraper{
		allocCtx:    allocCtx,
		cancelAlloc: cancel,
		wait:        opts.Wait,
		logger:      logging.OrNop(opts.Logger),
	}
}

// Close shuts the browser down
func (m *MapsScraper) Close() {
	m.cancelAlloc()
}

// Name identifies the source in output
func (m *MapsScraper) Name() string { return "maps" }

// SearchURL is the Maps search page for a domain
func SearchURL(domain string) string {
	return mapsSearchBase + url.PathEscape(domain)
}

type placePanel struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Scrape opens one tab per call; concurrent calls share the browser.
// A panel that never appears within the wait is ErrNotFound.
func (m *MapsScraper) Scrape(ctx context.Context, domain string) (*Listing, error) {
	tabCtx, cancelTab := chromedp.NewContext(m.allocCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	// navigation gets the same budget again on top of the panel wait
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 2*m.wait)
	defer cancelTimeout()

	searchURL := SearchURL(domain)
	var panel placePanel
	tasks := chromedp.Tasks{
		chromedp.Navigate(searchURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return chromedp.Evaluate(consentScript, nil).Do(ctx)
		}),
		chromedp.WaitVisible(`.Io6YTe`, chromedp.ByQuery),
		chromedp.Evaluate(panelScript, &panel),
	}

	err := chromedp.Run(tabCtx, tasks)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		m.logger.Debug("no place panel", zap.String("domain", domain), zap.Duration("wait", m.wait))
		return nil, fmt.Errorf("%s: %w", domain, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("maps lookup for %s failed: %w", domain, err)
	}

	return &Listing{
		Domain:     domain,
		Name:       strings.TrimSpace(panel.Name),
		RawAddress: strings.TrimSpace(panel.Address),
		SourceURL:  searchURL,
		Source:     m.Name(),
	}, nil
}

const consentScript = `(function () {
  const selectors = [
    'button[aria-label="Accept all"]',
    'button[aria-label="I agree"]',
    'form[action*="consent"] button'
  ];
  for (const sel of selectors) {
    const btn = document.querySelector(sel);
    if (btn) {
      btn.click();
      return true;
    }
  }
  return false;
})()`

const panelScript = `(function () {
  const name = document.querySelector('h1.DUwDvf');
  const addr = document.querySelector('.Io6YTe');
  return {
    name: name ? name.innerText : '',
    address: addr ? addr.innerText : ''
  };
})()`
