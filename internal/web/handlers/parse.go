package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/domain-scraper/internal/postal"
)

// ParseRequest carries one address. A null or missing address parses as empty input.
type ParseRequest struct {
	Identifier string  `json:"identifier"`
	Address    *string `json:"address"`
}

// Parse decomposes the posted address without touching the store
func Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON request")
		return
	}

	raw := sql.NullString{}
	if req.Address != nil {
		raw = sql.NullString{String: *req.Address, Valid: true}
	}
	writeJSON(w, http.StatusOK, postal.ParseNullable(req.Identifier, raw))
}
