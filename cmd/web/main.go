package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/domain-scraper/internal/config"
	"github.com/domain-scraper/internal/db"
	"github.com/domain-scraper/internal/logging"
	"github.com/domain-scraper/internal/store"
	"github.com/domain-scraper/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Dev)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	fmt.Println("=== Domain Scraper Web API ===")
	fmt.Printf("Server: http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Printf("Database: %s (%s)\n", cfg.Database.Name, cfg.Database.Driver)

	dbConn, err := db.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbConn.Close()

	st, err := store.New(dbConn.DB, dbConn.Driver, logger)
	if err != nil {
		logger.Fatal("failed to create store", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := st.Migrate(ctx); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	webConfig := web.FromWebConfig(cfg.Web)
	fmt.Println("\nFeatures enabled:")
	fmt.Printf("  • Export: %v\n", webConfig.Features.ExportEnabled)
	fmt.Printf("  • API key required: %v\n", webConfig.Auth.APIKey != "")
	fmt.Println()

	server := web.NewServer(webConfig, st, logger)
	if err := server.Start(ctx); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
