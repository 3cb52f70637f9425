// Package company holds the per-domain result row shared by the pipeline,
// the CSV writer, the store and the HTTP API.
package company

import (
	"time"

	"github.com/domain-scraper/internal/postal"
)

// Record is everything collected for one domain in one run
type Record struct {
	Domain        string              `json:"domain"`
	Company       string              `json:"company,omitempty"`
	RawAddress    string              `json:"raw_address,omitempty"`
	Address       postal.PostalRecord `json:"address"`
	EmployeeSize  string              `json:"employee_size,omitempty"`
	AnnualRevenue string              `json:"annual_revenue,omitempty"`
	Source        string              `json:"source,omitempty"`
	SourceURL     string              `json:"source_url,omitempty"`
	CanonicalKey  string              `json:"canonical_key,omitempty"`
	ScrapeError   string              `json:"scrape_error,omitempty"`
	RunID         string              `json:"run_id,omitempty"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Failed reports whether the scrape itself errored, as opposed to
// succeeding without an address
func (r Record) Failed() bool {
	return r.ScrapeError != ""
}
