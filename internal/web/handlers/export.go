package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/domain-scraper/internal/export"
	"github.com/domain-scraper/internal/postal"
	"github.com/domain-scraper/internal/store"
)

const exportPageSize = 500

// ExportHandler streams stored records as CSV
type ExportHandler struct {
	Store  RecordStore
	Logger *zap.Logger
}

// ExportCSV writes every matching record in the output CSV layout, with the
// ParseStatus column
func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filter := store.Filter{Limit: exportPageSize}
	if s := r.URL.Query().Get("status"); s != "" {
		status, err := postal.ParseStatusFromString(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = status
	}

	filename := fmt.Sprintf("companies_%s.csv", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	out, err := export.NewWriter(w, true)
	if err != nil {
		h.logError("export header failed", err)
		return
	}
	for {
		records, total, err := h.Store.List(r.Context(), filter)
		if err != nil {
			// headers are already sent; the truncated body is all we can signal
			h.logError("export page failed", err)
			return
		}
		for _, rec := range records {
			if err := out.Write(r.Context(), rec); err != nil {
				h.logError("export write failed", err)
				return
			}
		}
		filter.Offset += len(records)
		if len(records) == 0 || filter.Offset >= total {
			return
		}
	}
}

func (h *ExportHandler) logError(msg string, err error) {
	if h.Logger != nil {
		h.Logger.Error(msg, zap.Error(err))
	}
}
