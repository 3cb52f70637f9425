// Package domains reads and cleans the input list of company domains.
package domains

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// headerNames are accepted (case-insensitively) as the domain column header
var headerNames = map[string]bool{
	"domain":        true,
	"companydomain": true,
	"website":       true,
}

// Load reads domains from a CSV file
func Load(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open domains file %s: %w", path, err)
	}
	defer file.Close()

	return Read(file)
}

// Read reads domains from CSV. A header row naming a domain column selects
// that column; without one, the first column of every row is used. Order is
// kept and duplicates are dropped.
func Read(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	column := 0
	first := true
	seen := make(map[string]bool)
	var out []string

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read domains: %w", err)
		}

		if first {
			first = false
			if idx, ok := headerColumn(record); ok {
				column = idx
				continue
			}
		}

		if column >= len(record) {
			continue
		}
		domain := Clean(record[column])
		if domain == "" || seen[domain] {
			continue
		}
		seen[domain] = true
		out = append(out, domain)
	}
	return out, nil
}

func headerColumn(record []string) (int, bool) {
	for i, field := range record {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(field, "\ufeff")))
		if headerNames[name] {
			return i, true
		}
	}
	return 0, false
}

// Clean reduces a URL or host to a bare lower-case domain, or "" when
// nothing usable is left
func Clean(raw string) string {
	s := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "www.")
	s = strings.Trim(s, ".")

	if s == "" || !strings.Contains(s, ".") || strings.ContainsAny(s, " \t,;") {
		return ""
	}
	return s
}
