package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/domain-scraper/internal/domains"
	"github.com/domain-scraper/internal/export"
	"github.com/domain-scraper/internal/pipeline"
	"github.com/domain-scraper/internal/scrape"
)

func createScrapeCmd() *cobra.Command {
	var (
		input        string
		output       string
		source       string
		workers      int
		ratePerSec   float64
		statusColumn bool
		useStore     bool
		dnsCheck     bool
		debugMode    bool
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape every domain in the input CSV",
		Long:  `Reads domains from a CSV, looks each one up on its website or on Google Maps, parses the address and appends a row to the output CSV`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			list, err := domains.Load(input)
			if err != nil {
				return err
			}
			fmt.Printf("Loaded %d domains from %s\n", len(list), input)

			scraper, closeScraper, err := newScraper(source)
			if err != nil {
				return err
			}
			defer closeScraper()

			writer, err := export.Create(output, statusColumn)
			if err != nil {
				return err
			}
			defer writer.Close()
			sinks := []pipeline.Sink{writer}

			if useStore {
				conn, st, err := openStore()
				if err != nil {
					return err
				}
				defer conn.Close()
				if err := st.Migrate(ctx); err != nil {
					return err
				}
				sinks = append(sinks, st)
			}

			opts := pipeline.Options{
				Workers:    workers,
				RatePerSec: ratePerSec,
				Sinks:      sinks,
				Logger:     logger,
				Debug:      debugMode,
			}
			if dnsCheck {
				opts.Resolver = scrape.NewResolver(cfg.Scrape.Nameservers, cfg.Scrape.Timeout)
			}

			stats, runErr := pipeline.NewProcessor(scraper, opts).Run(ctx, list)
			if stats != nil {
				fmt.Printf("\nRun %s finished in %v\n", stats.RunID, stats.Duration)
				fmt.Printf("  domains: %d, scraped: %d, not found: %d, errors: %d (no dns: %d), sink errors: %d\n",
					stats.Total, stats.Scraped, stats.NotFound, stats.ScrapeErrors, stats.NoDNS, stats.SinkErrors)
				printTally(stats.Statuses)
				fmt.Printf("Results written to %s (%d rows)\n", output, writer.Rows())
			}
			return runErr
		},
	}

	s := cfg.Scrape
	cmd.Flags().StringVar(&input, "input", s.Input, "CSV file of domains")
	cmd.Flags().StringVar(&output, "output", s.Output, "CSV file to write results to")
	cmd.Flags().StringVar(&source, "source", s.Source, "where to look companies up: meta or maps")
	cmd.Flags().IntVar(&workers, "workers", s.Workers, "concurrent scrapes")
	cmd.Flags().Float64Var(&ratePerSec, "rate", s.RatePerSec, "scrapes per second across all workers, 0 for unlimited")
	cmd.Flags().BoolVar(&statusColumn, "status-column", s.StatusColumn, "append a ParseStatus column")
	cmd.Flags().BoolVar(&useStore, "store", false, "also upsert results into the database")
	cmd.Flags().BoolVar(&dnsCheck, "dns-check", s.DNSCheck, "skip domains without DNS records")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "log parser decisions")
	return cmd
}

// newScraper builds the scraper for source and its cleanup func
func newScraper(source string) (scrape.Scraper, func(), error) {
	s := cfg.Scrape
	switch source {
	case "meta":
		return scrape.NewMetaScraper(scrape.MetaOptions{
			Timeout:   s.Timeout,
			UserAgent: s.UserAgent,
			Logger:    logger,
		}), func() {}, nil
	case "maps":
		m := scrape.NewMapsScraper(scrape.MapsOptions{
			Headless:  s.Headless,
			UserAgent: s.UserAgent,
			Wait:      s.MapsWait,
			Logger:    logger,
		})
		return m, m.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q (want meta or maps)", source)
	}
}
