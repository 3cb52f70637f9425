package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/domain-scraper/internal/logging"
	"github.com/domain-scraper/internal/normalize"
)

const maxPageBytes = 2 * 1024 * 1024

// DefaultMetaPaths are fetched in order until the listing is complete
var DefaultMetaPaths = []string{"/", "/contact", "/contact-us", "/about"}

// MetaOptions configures a MetaScraper
type MetaOptions struct {
	Timeout   time.Duration
	UserAgent string
	Paths     []string
	// BaseURL maps a domain to the site root; defaults to https://<domain>
	BaseURL func(domain string) string
	Logger  *zap.Logger
}

// MetaScraper reads company details from a site's meta tags, title and
// <address> element
type MetaScraper struct {
	client    *http.Client
	userAgent string
	paths     []string
	baseURL   func(string) string
	logger    *zap.Logger
}

// NewMetaScraper creates a MetaScraper
func NewMetaScraper(opts MetaOptions) *MetaScraper {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if len(opts.Paths) == 0 {
		opts.Paths = DefaultMetaPaths
	}
	if opts.BaseURL == nil {
		opts.BaseURL = func(domain string) string { return "https://" + domain }
	}
	return &MetaScraper{
		client:    &http.Client{Timeout: opts.Timeout},
		userAgent: opts.UserAgent,
		paths:     opts.Paths,
		baseURL:   opts.BaseURL,
		logger:    logging.OrNop(opts.Logger),
	}
}

// Name identifies the source in output
func (m *MetaScraper) Name() string { return "meta" }

// Scrape walks the configured pages, keeping the first value seen for each
// field. It fails only when no page could be fetched.
func (m *MetaScraper) Scrape(ctx context.Context, domain string) (*Listing, error) {
	listing := &Listing{Domain: domain, Source: m.Name()}
	root := strings.TrimRight(m.baseURL(domain), "/")

	fetched := 0
	var lastErr error
	for _, path := range m.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageURL := root + path
		if path == "/" {
			pageURL = root
		}
		doc, err := m.fetch(ctx, pageURL)
		if err != nil {
			m.logger.Debug("page fetch failed", zap.String("url", pageURL), zap.Error(err))
			lastErr = err
			continue
		}
		fetched++

		page := ExtractMeta(doc)
		if listing.RawAddress == "" && page.RawAddress != "" {
			listing.SourceURL = pageURL
		}
		listing.merge(page)
		if listing.Complete() {
			break
		}
	}

	if fetched == 0 {
		return nil, fmt.Errorf("no page of %s could be fetched: %w", domain, lastErr)
	}
	if listing.SourceURL == "" {
		listing.SourceURL = root
	}
	return listing, nil
}

func (m *MetaScraper) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	if m.userAgent != "" {
		req.Header.Set("User-Agent", m.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s responded with status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// ExtractMeta pulls listing fields from one parsed page
func ExtractMeta(doc *goquery.Document) Listing {
	meta := func(name string) string {
		v, _ := doc.Find(`meta[name="` + name + `"]`).First().Attr("content")
		return strings.TrimSpace(v)
	}

	var l Listing
	if v, ok := doc.Find(`meta[property="og:site_name"]`).First().Attr("content"); ok {
		l.Name = strings.TrimSpace(v)
	}
	if l.Name == "" {
		l.Name = meta("company")
	}
	if l.Name == "" {
		l.Name = strings.TrimSpace(doc.Find("title").First().Text())
	}

	l.RawAddress = meta("address")
	if l.RawAddress == "" {
		l.RawAddress = addressText(doc.Find("address").First())
	}
	if normalize.IsBlank(l.RawAddress) {
		l.RawAddress = ""
	}

	l.City = meta("city")
	l.State = meta("state")
	l.Zip = meta("zip")
	l.EmployeeSize = meta("employee-size")
	l.AnnualRevenue = meta("annual-revenue")
	return l
}

// addressText flattens a multi-line <address> block into one comma-joined line
func addressText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	sel = sel.Clone()
	sel.Find("br").ReplaceWithHtml("\n")

	var lines []string
	for _, line := range strings.Split(sel.Text(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		line = strings.TrimSuffix(line, ",")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, ", ")
}
