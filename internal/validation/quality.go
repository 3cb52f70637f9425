// Package validation scores how usable a parsed address is for mailing
// and matching.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/domain-scraper/internal/normalize"
	"github.com/domain-scraper/internal/postal"
)

// QualityCheck represents an individual quality validation check
type QualityCheck struct {
	Name    string  `json:"name"`
	Passed  bool    `json:"passed"`
	Details string  `json:"details,omitempty"`
	Impact  string  `json:"impact"` // "critical", "major", "minor"
	weight  float64 // credit given when the check fails
}

// Quality is the outcome of all checks on one record
type Quality struct {
	Confidence float64        `json:"confidence"`
	Checks     []QualityCheck `json:"checks"`
}

// Issues lists the details of the failed checks
func (q Quality) Issues() []string {
	var issues []string
	for _, c := range q.Checks {
		if !c.Passed {
			issues = append(issues, c.Details)
		}
	}
	return issues
}

// Usable reports whether the record is good enough to mail to
func (q Quality) Usable() bool {
	for _, c := range q.Checks {
		if !c.Passed && c.Impact == "critical" {
			return false
		}
	}
	return q.Confidence >= 0.6
}

var (
	reHouseNumber = []*regexp.Regexp{
		regexp.MustCompile(`^\d+[A-Z]?\b`),             // "123", "45A"
		regexp.MustCompile(`^\d+[A-Z]?-\d+[A-Z]?\b`),   // "12-14"
		regexp.MustCompile(`^(?i)P\.?\s*O\.?\s+BOX\b`), // "PO Box 12"
		regexp.MustCompile(`^(?i)(ONE|TWO|THREE)\s`),   // "One Market St"
	}
	reZip = regexp.MustCompile(`^\d{5}(?:-\d{4})?$`)
)

// Check runs every check against rec
func Check(rec postal.PostalRecord) Quality {
	if !rec.Status.Structured() {
		return Quality{Checks: []QualityCheck{{
			Name:    "structure",
			Details: fmt.Sprintf("Address is %s", rec.Status),
			Impact:  "critical",
		}}}
	}

	checks := []QualityCheck{
		checkHouseNumber(rec.StreetAddress),
		checkCity(rec.City),
		checkState(rec.StateCode),
		checkZip(rec.PostalCode),
	}

	sum := 0.0
	for _, c := range checks {
		if c.Passed {
			sum++
		} else {
			sum += c.weight
		}
	}
	return Quality{Confidence: sum / float64(len(checks)), Checks: checks}
}

func checkHouseNumber(street string) QualityCheck {
	c := QualityCheck{Name: "house_number", Impact: "major", weight: 0.3}
	s := strings.ToUpper(strings.TrimSpace(street))
	for _, re := range reHouseNumber {
		if re.MatchString(s) {
			c.Passed = true
			return c
		}
	}
	c.Details = fmt.Sprintf("No house number in street: %s", street)
	return c
}

func checkCity(city string) QualityCheck {
	c := QualityCheck{Name: "city", Impact: "minor", weight: 0.5}
	if strings.ContainsAny(city, "0123456789") {
		c.Details = fmt.Sprintf("City contains digits: %s", city)
		return c
	}
	c.Passed = true
	return c
}

func checkState(state string) QualityCheck {
	c := QualityCheck{Name: "state", Impact: "major"}
	if state == "" {
		c.Details = "No state identified"
		return c
	}
	code, ok := normalize.StateCode(state)
	switch {
	case !ok:
		c.Details = fmt.Sprintf("Unknown US state: %s", state)
	case code != state:
		c.Details = fmt.Sprintf("State should be written %s", code)
		c.weight = 0.7
	default:
		c.Passed = true
	}
	return c
}

func checkZip(zip string) QualityCheck {
	c := QualityCheck{Name: "zip", Impact: "major"}
	switch {
	case zip == "":
		c.Details = "No zip code identified"
	case !reZip.MatchString(zip):
		c.Details = fmt.Sprintf("Invalid US zip format: %s", zip)
		c.weight = 0.2
	default:
		c.Passed = true
	}
	return c
}
