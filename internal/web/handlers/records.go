package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/domain-scraper/internal/company"
	"github.com/domain-scraper/internal/postal"
	"github.com/domain-scraper/internal/store"
)

const maxPerPage = 1000

// RecordsHandler handles record endpoints
type RecordsHandler struct {
	Store  RecordStore
	Logger *zap.Logger
}

// RecordsListResponse represents a paginated list of records
type RecordsListResponse struct {
	Records []company.Record `json:"records"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

// ListRecords returns a filtered and paginated list of records
func (h *RecordsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := parseIntParam(query.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	perPage := parseIntParam(query.Get("per_page"), 50)
	if perPage < 1 {
		perPage = 50
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	filter := store.Filter{Limit: perPage, Offset: (page - 1) * perPage}
	if s := query.Get("status"); s != "" {
		status, err := postal.ParseStatusFromString(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = status
	}

	records, total, err := h.Store.List(r.Context(), filter)
	if err != nil {
		serverError(w, h.Logger, "failed to list records", err)
		return
	}
	if records == nil {
		records = []company.Record{}
	}

	writeJSON(w, http.StatusOK, RecordsListResponse{
		Records: records,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

// GetRecord returns the record for one domain
func (h *RecordsHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	domain := mux.Vars(r)["domain"]

	rec, err := h.Store.Get(r.Context(), domain)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no record for "+domain)
		return
	}
	if err != nil {
		serverError(w, h.Logger, "failed to load record", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
