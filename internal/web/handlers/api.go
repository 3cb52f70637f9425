package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/domain-scraper/internal/company"
	"github.com/domain-scraper/internal/postal"
	"github.com/domain-scraper/internal/store"
)

// RecordStore is the read side of the results store
type RecordStore interface {
	Get(ctx context.Context, domain string) (*company.Record, error)
	List(ctx context.Context, f store.Filter) ([]company.Record, int, error)
	Stats(ctx context.Context) (*postal.Tally, error)
}

// APIHandler serves statistics and health
type APIHandler struct {
	Store  RecordStore
	Logger *zap.Logger
}

// StatsResponse is the per-status breakdown of stored records
type StatsResponse struct {
	TotalRecords int            `json:"total_records"`
	ByStatus     map[string]int `json:"by_status"`
	SuccessRate  float64        `json:"success_rate"`
}

// GetStats returns counts per parse status
func (h *APIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	tally, err := h.Store.Stats(r.Context())
	if err != nil {
		serverError(w, h.Logger, "stats query failed", err)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		TotalRecords: tally.Total(),
		ByStatus:     tally.Snapshot(),
		SuccessRate:  tally.SuccessRate(),
	})
}

// Health reports liveness
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func serverError(w http.ResponseWriter, logger *zap.Logger, msg string, err error) {
	if logger != nil {
		logger.Error(msg, zap.Error(err))
	}
	writeError(w, http.StatusInternalServerError, msg)
}

// parseIntParam parses a string parameter as int with a default value
func parseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return defaultVal
}
