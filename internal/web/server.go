// Package web serves parsed company records over HTTP.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/domain-scraper/internal/logging"
	"github.com/domain-scraper/internal/web/handlers"
	"github.com/domain-scraper/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *Config
	store      handlers.RecordStore
	logger     *zap.Logger
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a new web server instance
func NewServer(config *Config, store handlers.RecordStore, logger *zap.Logger) *Server {
	server := &Server{
		config: config,
		store:  store,
		logger: logging.OrNop(logger),
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	apiHandler := &handlers.APIHandler{Store: s.store, Logger: s.logger}
	recordsHandler := &handlers.RecordsHandler{Store: s.store, Logger: s.logger}
	exportHandler := &handlers.ExportHandler{Store: s.store, Logger: s.logger}

	s.router.HandleFunc("/healthz", apiHandler.Health).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/parse", handlers.Parse).Methods("POST")
	api.HandleFunc("/records", recordsHandler.ListRecords).Methods("GET")
	api.HandleFunc("/records/{domain}", recordsHandler.GetRecord).Methods("GET")
	api.HandleFunc("/stats", apiHandler.GetStats).Methods("GET")

	if s.config.Features.ExportEnabled {
		api.HandleFunc("/export", exportHandler.ExportCSV).Methods("GET")
	}

	s.router.Use(middleware.RequestLogging(s.logger))
	api.Use(middleware.Authentication(s.config.Auth.APIKey))
}

// Handler is the full handler chain. CORS wraps the router so preflight
// requests are answered before route method matching.
func (s *Server) Handler() http.Handler {
	return middleware.CORS()(s.router)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
