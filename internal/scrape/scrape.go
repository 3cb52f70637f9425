// Package scrape collects raw company details for a domain from websites
// and map listings.
package scrape

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means the source answered but had no listing for the domain
	ErrNotFound = errors.New("no listing found")
	// ErrNoDNS means the domain has no A, AAAA or MX records
	ErrNoDNS = errors.New("domain does not resolve")
)

// Listing is the raw, unparsed data a source returned for one domain
type Listing struct {
	Domain        string
	Name          string
	RawAddress    string
	City          string
	State         string
	Zip           string
	EmployeeSize  string
	AnnualRevenue string
	SourceURL     string
	Source        string
}

// Complete reports whether every field a source can supply is filled
func (l *Listing) Complete() bool {
	return l.Name != "" && l.RawAddress != "" && l.City != "" && l.State != "" &&
		l.Zip != "" && l.EmployeeSize != "" && l.AnnualRevenue != ""
}

// merge fills empty fields of l from other
func (l *Listing) merge(other Listing) {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&l.Name, other.Name)
	fill(&l.RawAddress, other.RawAddress)
	fill(&l.City, other.City)
	fill(&l.State, other.State)
	fill(&l.Zip, other.Zip)
	fill(&l.EmployeeSize, other.EmployeeSize)
	fill(&l.AnnualRevenue, other.AnnualRevenue)
	fill(&l.SourceURL, other.SourceURL)
}

// Scraper fetches a listing for one domain
type Scraper interface {
	Name() string
	Scrape(ctx context.Context, domain string) (*Listing, error)
}
