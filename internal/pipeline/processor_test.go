package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/domain-scraper/internal/company"
	"github.com/domain-scraper/internal/postal"
	"github.com/domain-scraper/internal/scrape"
)

type fakeScraper struct {
	listings map[string]scrape.Listing
	errs     map[string]error
	active   int32
	peak     int32
}

func (f *fakeScraper) Name() string { return "fake" }

func (f *fakeScraper) Scrape(ctx context.Context, domain string) (*scrape.Listing, error) {
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if err, ok := f.errs[domain]; ok {
		return nil, err
	}
	l := f.listings[domain]
	l.Domain = domain
	return &l, nil
}

type memSink struct {
	mu      sync.Mutex
	records []company.Record
	fail    bool
}

func (s *memSink) Write(_ context.Context, rec company.Record) error {
	if s.fail {
		return errors.New("disk full")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *memSink) byDomain() map[string]company.Record {
	out := make(map[string]company.Record)
	for _, r := range s.records {
		out[r.Domain] = r
	}
	return out
}

type fakeResolver map[string]bool

func (f fakeResolver) HasHost(_ context.Context, domain string) (bool, error) {
	ok, known := f[domain]
	if !known {
		return false, errors.New("timeout")
	}
	return ok, nil
}

func TestRun(t *testing.T) {
	scraper := &fakeScraper{
		listings: map[string]scrape.Listing{
			"acme.com":    {Name: "Acme", RawAddress: "123 Main St, Springfield, IL 62704", EmployeeSize: "10"},
			"partial.com": {Name: "Partial", RawAddress: "9 Elm Rd, Bisbee, AZ", Zip: "85603"},
			"blank.com":   {Name: "Blank"},
			"junk.com":    {RawAddress: "call us"},
		},
		errs: map[string]error{"down.com": errors.New("connection refused")},
	}
	sink := &memSink{}
	p := NewProcessor(scraper, Options{Workers: 3, Sinks: []Sink{sink}})

	stats, err := p.Run(context.Background(), []string{"acme.com", "partial.com", "blank.com", "junk.com", "down.com"})
	require.NoError(t, err)

	_, err = uuid.Parse(stats.RunID)
	assert.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 4, stats.Scraped)
	assert.Equal(t, 1, stats.ScrapeErrors)
	assert.Zero(t, stats.SinkErrors)
	assert.Equal(t, 1, stats.Statuses.Count(postal.Matched))
	assert.Equal(t, 1, stats.Statuses.Count(postal.FallbackMatched))
	assert.Equal(t, 1, stats.Statuses.Count(postal.Unparseable))
	assert.Equal(t, 2, stats.Statuses.Count(postal.EmptyInput))

	got := sink.byDomain()
	require.Len(t, got, 5)

	acme := got["acme.com"]
	assert.Equal(t, "Acme", acme.Company)
	assert.Equal(t, "IL", acme.Address.StateCode)
	assert.Equal(t, "fake", acme.Source)
	assert.Equal(t, stats.RunID, acme.RunID)
	assert.NotEmpty(t, acme.CanonicalKey)
	assert.False(t, acme.Failed())

	partial := got["partial.com"]
	assert.Equal(t, postal.FallbackMatched, partial.Address.Status)
	assert.Equal(t, "AZ", partial.Address.StateCode)
	assert.Equal(t, "85603", partial.Address.PostalCode, "gap filled from listing")

	down := got["down.com"]
	assert.True(t, down.Failed())
	assert.Equal(t, "connection refused", down.ScrapeError)
	assert.Equal(t, postal.PostalRecord{Identifier: "down.com", Status: postal.EmptyInput}, down.Address)
}

func TestRunFillsGapsOnlyForStructured(t *testing.T) {
	scraper := &fakeScraper{listings: map[string]scrape.Listing{
		"a.com": {RawAddress: "nothing useful", City: "Tucson", State: "AZ", Zip: "85701"},
	}}
	sink := &memSink{}
	_, err := NewProcessor(scraper, Options{Sinks: []Sink{sink}}).Run(context.Background(), []string{"a.com"})
	require.NoError(t, err)

	rec := sink.records[0]
	assert.Equal(t, postal.PostalRecord{Identifier: "a.com", Status: postal.Unparseable}, rec.Address)
}

func TestRunWorkerLimit(t *testing.T) {
	scraper := &fakeScraper{}
	domains := make([]string, 20)
	for i := range domains {
		domains[i] = string(rune('a'+i)) + ".com"
	}

	stats, err := NewProcessor(scraper, Options{Workers: 4}).Run(context.Background(), domains)
	require.NoError(t, err)
	assert.Equal(t, 20, stats.Scraped)
	assert.LessOrEqual(t, atomic.LoadInt32(&scraper.peak), int32(4))
}

func TestRunDNSPrecheck(t *testing.T) {
	scraper := &fakeScraper{listings: map[string]scrape.Listing{
		"live.com":  {RawAddress: "1 A St, B, CA 90001"},
		"flaky.com": {RawAddress: "1 A St, B, CA 90001"},
	}}
	sink := &memSink{}
	p := NewProcessor(scraper, Options{
		Sinks:    []Sink{sink},
		Resolver: fakeResolver{"live.com": true, "dead.com": false},
	})

	stats, err := p.Run(context.Background(), []string{"live.com", "dead.com", "flaky.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.NoDNS)
	assert.Equal(t, 2, stats.Scraped, "resolver errors do not skip the domain")

	got := sink.byDomain()
	assert.Equal(t, scrape.ErrNoDNS.Error(), got["dead.com"].ScrapeError)
	assert.Equal(t, postal.Matched, got["flaky.com"].Address.Status)
}

func TestRunSinkErrorsCounted(t *testing.T) {
	scraper := &fakeScraper{}
	good, bad := &memSink{}, &memSink{fail: true}
	stats, err := NewProcessor(scraper, Options{Sinks: []Sink{bad, good}}).
		Run(context.Background(), []string{"a.com", "b.com"})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.SinkErrors)
	assert.Len(t, good.records, 2, "one failing sink does not starve the others")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &memSink{}
	stats, err := NewProcessor(&fakeScraper{}, Options{Sinks: []Sink{sink}}).
		Run(ctx, []string{"a.com", "b.com"})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, stats)
	assert.Empty(t, sink.records)
}

func TestRunRateLimited(t *testing.T) {
	scraper := &fakeScraper{}
	start := time.Now()
	_, err := NewProcessor(scraper, Options{Workers: 4, RatePerSec: 20}).
		Run(context.Background(), []string{"a.com", "b.com", "c.com", "d.com", "e.com"})
	require.NoError(t, err)
	// burst of 20 covers all five requests
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRunPreservesAllDomains(t *testing.T) {
	sink := &memSink{}
	domains := []string{"c.com", "a.com", "b.com"}
	_, err := NewProcessor(&fakeScraper{}, Options{Workers: 2, Sinks: []Sink{sink}}).
		Run(context.Background(), domains)
	require.NoError(t, err)

	var seen []string
	for _, r := range sink.records {
		seen = append(seen, r.Domain)
	}
	sort.Strings(seen)
	assert.Equal(t, []string{"a.com", "b.com", "c.com"}, seen)
}

func TestRunNotFoundIsNotAnError(t *testing.T) {
	scraper := &fakeScraper{errs: map[string]error{"nowhere.com": scrape.ErrNotFound}}
	sink := &memSink{}
	stats, err := NewProcessor(scraper, Options{Sinks: []Sink{sink}}).
		Run(context.Background(), []string{"nowhere.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.NotFound)
	assert.Zero(t, stats.ScrapeErrors)

	rec := sink.records[0]
	assert.False(t, rec.Failed())
	assert.Equal(t, postal.EmptyInput, rec.Address.Status)
}

func TestRunDebugTiming(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
		want  int
	}{
		{"debug on", true, 1},
		{"debug off", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			defer zap.ReplaceGlobals(zap.New(core))()

			scraper := &fakeScraper{listings: map[string]scrape.Listing{
				"acme.com": {RawAddress: "123 Main St, Springfield, IL 62704"},
			}}
			_, err := NewProcessor(scraper, Options{Debug: tt.debug}).Run(context.Background(), []string{"acme.com"})
			require.NoError(t, err)

			runs := logs.FilterMessage("completed").FilterField(zap.String("operation", "pipeline run")).All()
			assert.Len(t, runs, tt.want)
		})
	}
}
