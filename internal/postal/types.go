package postal

import (
	"fmt"
	"strings"
	"sync"
)

// ParseStatus records which path produced a PostalRecord
type ParseStatus int

const (
	// Matched means the full input conformed to the canonical US address shape
	Matched ParseStatus = iota + 1
	// FallbackMatched means the comma-space heuristic produced the fields
	FallbackMatched
	// Unparseable means non-empty input that neither path could decompose
	Unparseable
	// EmptyInput means the input was missing or blank
	EmptyInput
)

var statusNames = map[ParseStatus]string{
	Matched:         "matched",
	FallbackMatched: "fallback_matched",
	Unparseable:     "unparseable",
	EmptyInput:      "empty_input",
}

// AllStatuses lists every status in reporting order
var AllStatuses = []ParseStatus{Matched, FallbackMatched, Unparseable, EmptyInput}

func (s ParseStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Structured reports whether the status carries street and city
func (s ParseStatus) Structured() bool {
	return s == Matched || s == FallbackMatched
}

// ParseStatusFromString is the inverse of String
func ParseStatusFromString(name string) (ParseStatus, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown parse status %q", name)
}

// MarshalText encodes the status by name for JSON and CSV
func (s ParseStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name
func (s *ParseStatus) UnmarshalText(text []byte) error {
	status, err := ParseStatusFromString(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// PostalRecord is the structured result of parsing one free-text address.
// Empty strings mean the component is absent.
type PostalRecord struct {
	Identifier    string      `json:"identifier"`
	StreetAddress string      `json:"street_address,omitempty"`
	City          string      `json:"city,omitempty"`
	StateCode     string      `json:"state_code,omitempty"`
	PostalCode    string      `json:"postal_code,omitempty"`
	Status        ParseStatus `json:"parse_status"`
}

// Oneline renders a structured record back to "street, city, ST zip"
func (r PostalRecord) Oneline() string {
	if !r.Status.Structured() {
		return ""
	}
	tail := strings.TrimSpace(r.StateCode + " " + r.PostalCode)
	if tail == "" {
		return r.StreetAddress + ", " + r.City
	}
	return r.StreetAddress + ", " + r.City + ", " + tail
}

func (r PostalRecord) String() string {
	return fmt.Sprintf("%s [%s] Street: %s, City: %s, State: %s, Zip: %s",
		r.Identifier, r.Status, r.StreetAddress, r.City, r.StateCode, r.PostalCode)
}

// Tally counts records per status. Safe for concurrent use.
type Tally struct {
	mu     sync.Mutex
	counts map[ParseStatus]int
}

// NewTally creates an empty tally
func NewTally() *Tally {
	return &Tally{counts: make(map[ParseStatus]int)}
}

// Add counts one record with the given status
func (t *Tally) Add(status ParseStatus) {
	t.AddN(status, 1)
}

// AddN counts n records with the given status
func (t *Tally) AddN(status ParseStatus, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.counts == nil {
		t.counts = make(map[ParseStatus]int)
	}
	t.counts[status] += n
}

// Count returns the number of records seen with status
func (t *Tally) Count(status ParseStatus) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[status]
}

// Total returns the number of records seen
func (t *Tally) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}

// SuccessRate is the share of structured results, 0 when nothing was counted
func (t *Tally) SuccessRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	total, ok := 0, 0
	for status, n := range t.counts {
		total += n
		if status.Structured() {
			ok += n
		}
	}
	if total == 0 {
		return 0
	}
	return float64(ok) / float64(total)
}

// Snapshot returns the counts keyed by status name, zero entries included
func (t *Tally) Snapshot() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(AllStatuses))
	for _, status := range AllStatuses {
		out[status.String()] = t.counts[status]
	}
	return out
}
