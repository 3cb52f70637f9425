// Package pipeline runs the scrape, parse and write steps over a domain list.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/domain-scraper/internal/company"
	"github.com/domain-scraper/internal/debug"
	"github.com/domain-scraper/internal/logging"
	"github.com/domain-scraper/internal/normalize"
	"github.com/domain-scraper/internal/postal"
	"github.com/domain-scraper/internal/scrape"
)

// Sink receives every finished record. Writes are serialized by the processor.
type Sink interface {
	Write(ctx context.Context, rec company.Record) error
}

// HostChecker reports whether a domain resolves
type HostChecker interface {
	HasHost(ctx context.Context, domain string) (bool, error)
}

// Options configures a Processor
type Options struct {
	Workers    int
	RatePerSec float64 // zero or less disables limiting
	Resolver   HostChecker
	Sinks      []Sink
	Logger     *zap.Logger
	Debug      bool
}

// Processor drives one scraper over many domains
type Processor struct {
	scraper  scrape.Scraper
	parser   *postal.AddressParser
	resolver HostChecker
	limiter  *rate.Limiter
	sinks    []Sink
	workers  int
	logger   *zap.Logger
	debug    bool

	mu sync.Mutex // guards sinks and stats during a run
}

// RunStats summarises one Run
type RunStats struct {
	RunID        string
	Total        int
	Scraped      int
	NotFound     int
	ScrapeErrors int
	NoDNS        int
	SinkErrors   int
	Statuses     *postal.Tally
	Duration     time.Duration
}

// NewProcessor creates a processor
func NewProcessor(scraper scrape.Scraper, opts Options) *Processor {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	p := &Processor{
		scraper:  scraper,
		parser:   postal.NewAddressParser(),
		resolver: opts.Resolver,
		sinks:    opts.Sinks,
		workers:  opts.Workers,
		logger:   logging.OrNop(opts.Logger),
		debug:    opts.Debug,
	}
	if opts.RatePerSec > 0 {
		burst := int(opts.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}
	return p
}

// Run processes every domain and hands each record to the sinks. A failed
// scrape is recorded, never fatal. Cancelling ctx stops dispatch and Run
// returns ctx.Err() with the stats gathered so far.
func (p *Processor) Run(ctx context.Context, domains []string) (*RunStats, error) {
	debug.DebugHeader(p.debug)
	defer debug.DebugFooter(p.debug)
	defer debug.DebugTiming(p.debug, "pipeline run")()

	start := time.Now()
	stats := &RunStats{
		RunID:    uuid.NewString(),
		Total:    len(domains),
		Statuses: postal.NewTally(),
	}
	logger := p.logger.With(zap.String("run_id", stats.RunID), zap.String("source", p.scraper.Name()))
	logger.Info("run started", zap.Int("domains", len(domains)), zap.Int("workers", p.workers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, domain := range domains {
		if gctx.Err() != nil {
			break
		}
		domain := domain
		g.Go(func() error {
			rec, err := p.process(gctx, stats.RunID, domain)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			p.emit(gctx, logger, stats, rec, err)
			return nil
		})
	}

	err := g.Wait()
	stats.Duration = time.Since(start)

	logger.Info("run finished",
		zap.Int("scraped", stats.Scraped),
		zap.Int("not_found", stats.NotFound),
		zap.Int("scrape_errors", stats.ScrapeErrors),
		zap.Int("sink_errors", stats.SinkErrors),
		zap.Float64("success_rate", stats.Statuses.SuccessRate()),
		zap.Duration("took", stats.Duration))

	if ctx.Err() != nil {
		return stats, ctx.Err()
	}
	return stats, err
}

// process builds the record for one domain. The returned error is the
// scrape failure already folded into the record.
func (p *Processor) process(ctx context.Context, runID, domain string) (company.Record, error) {
	rec := company.Record{Domain: domain, Source: p.scraper.Name(), RunID: runID}

	if p.resolver != nil {
		ok, err := p.resolver.HasHost(ctx, domain)
		switch {
		case err != nil:
			p.logger.Warn("dns check failed, scraping anyway", zap.String("domain", domain), zap.Error(err))
		case !ok:
			return failed(rec, scrape.ErrNoDNS), scrape.ErrNoDNS
		}
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return failed(rec, err), err
		}
	}

	listing, err := p.scraper.Scrape(ctx, domain)
	if err != nil {
		return failed(rec, err), err
	}

	rec.Company = listing.Name
	rec.RawAddress = listing.RawAddress
	rec.EmployeeSize = listing.EmployeeSize
	rec.AnnualRevenue = listing.AnnualRevenue
	rec.SourceURL = listing.SourceURL
	rec.Address = p.parser.ParseDebug(p.debug, domain, listing.RawAddress)
	fillGaps(&rec.Address, listing)
	rec.CanonicalKey = normalize.CanonicalKey(rec.Address)
	rec.UpdatedAt = time.Now().UTC()
	return rec, nil
}

// fillGaps copies separately published city, state and zip into a
// structured result where the parse left them empty
func fillGaps(addr *postal.PostalRecord, l *scrape.Listing) {
	if !addr.Status.Structured() {
		return
	}
	if addr.City == "" {
		addr.City = l.City
	}
	if addr.StateCode == "" {
		addr.StateCode = l.State
	}
	if addr.PostalCode == "" {
		addr.PostalCode = l.Zip
	}
}

// failed records a scrape that produced no listing. ErrNotFound is an
// empty answer, not an error, and leaves ScrapeError unset.
func failed(rec company.Record, err error) company.Record {
	if !errors.Is(err, scrape.ErrNotFound) {
		rec.ScrapeError = err.Error()
	}
	rec.Address = postal.PostalRecord{Identifier: rec.Domain, Status: postal.EmptyInput}
	rec.UpdatedAt = time.Now().UTC()
	return rec
}

func (p *Processor) emit(ctx context.Context, logger *zap.Logger, stats *RunStats, rec company.Record, scrapeErr error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case scrapeErr == nil:
		stats.Scraped++
	case errors.Is(scrapeErr, scrape.ErrNotFound):
		stats.NotFound++
	case errors.Is(scrapeErr, scrape.ErrNoDNS):
		stats.NoDNS++
		stats.ScrapeErrors++
	default:
		stats.ScrapeErrors++
	}
	stats.Statuses.Add(rec.Address.Status)

	switch {
	case errors.Is(scrapeErr, scrape.ErrNotFound):
		logger.Info("no listing", zap.String("domain", rec.Domain))
	case scrapeErr != nil:
		logger.Warn("scrape failed", zap.String("domain", rec.Domain), zap.Error(scrapeErr))
	default:
		logger.Debug("record ready",
			zap.String("domain", rec.Domain),
			zap.Stringer("status", rec.Address.Status))
	}

	for _, sink := range p.sinks {
		if err := sink.Write(ctx, rec); err != nil {
			stats.SinkErrors++
			logger.Error("sink write failed", zap.String("domain", rec.Domain), zap.Error(err))
		}
	}

	if done := stats.Scraped + stats.NotFound + stats.ScrapeErrors; done%100 == 0 {
		debug.DebugOutput(p.debug, "Processed %d/%d domains (%.1f%%)",
			done, stats.Total, float64(done)/float64(stats.Total)*100)
	}
}
