package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/domain-scraper/internal/config"
	"github.com/domain-scraper/internal/db"
	"github.com/domain-scraper/internal/logging"
	"github.com/domain-scraper/internal/postal"
	"github.com/domain-scraper/internal/store"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	var err error

	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err = logging.New(cfg.Log.Level, cfg.Log.Dev)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	rootCmd := &cobra.Command{
		Use:          "scraper",
		Short:        "Company domain scraper",
		Long:         `Collects company names and addresses for a list of domains and splits the addresses into street, city, state and zip`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(createScrapeCmd())
	rootCmd.AddCommand(createParseCmd())
	rootCmd.AddCommand(createExportCmd())
	rootCmd.AddCommand(createMigrateCmd())
	rootCmd.AddCommand(createReparseCmd())
	rootCmd.AddCommand(createCompareCmd())
	rootCmd.AddCommand(createPingCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// openStore connects to the configured database
func openStore() (*db.Connection, *store.Store, error) {
	conn, err := db.NewConnection(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.New(conn.DB, conn.Driver, logger)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, st, nil
}

// createPingCmd creates a command to test database connectivity
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, st, err := openStore()
			if err != nil {
				return err
			}
			defer conn.Close()
			fmt.Printf("Database connection successful! (%s)\n", conn.Driver)

			tally, err := st.Stats(cmd.Context())
			if err != nil {
				log.Printf("Error counting company_record rows: %v", err)
				return nil
			}
			fmt.Printf("Company records stored: %d\n", tally.Total())
			return nil
		},
	}
}

// createMigrateCmd creates the company_record table
func createMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the results table",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, st, err := openStore()
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("company_record table ready")
			return nil
		},
	}
}

// createReparseCmd re-runs the address parser over stored raw addresses
func createReparseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reparse",
		Short: "Re-parse every stored raw address",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, st, err := openStore()
			if err != nil {
				return err
			}
			defer conn.Close()

			changed, err := st.Reparse(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Reparse complete: %d records changed status\n", changed)
			return printStoreStats(cmd.Context(), st)
		},
	}
}

func printStoreStats(ctx context.Context, st *store.Store) error {
	tally, err := st.Stats(ctx)
	if err != nil {
		return err
	}
	printTally(tally)
	return nil
}

func printTally(tally *postal.Tally) {
	total := tally.Total()
	for _, status := range postal.AllStatuses {
		n := tally.Count(status)
		pct := 0.0
		if total > 0 {
			pct = float64(n) / float64(total) * 100
		}
		fmt.Printf("  %-17s %6d (%.1f%%)\n", status.String()+":", n, pct)
	}
	fmt.Printf("  %-17s %6d\n", "total:", total)
	fmt.Printf("  %-17s %.1f%%\n", "success rate:", tally.SuccessRate()*100)
}
