package postal

import (
	"database/sql"
	"regexp"
	"strings"

	"github.com/domain-scraper/internal/debug"
)

// fallbackSeparator is the literal separator of the position-based decomposition
const fallbackSeparator = ", "

// AddressParser splits free-text US addresses into street, city, state and zip.
// It holds only compiled patterns and is safe for concurrent use.
type AddressParser struct {
	primaryPattern *regexp.Regexp
}

// NewAddressParser creates a parser for "<street>, <city>, <ST> <zip>[-<ext>]"
func NewAddressParser() *AddressParser {
	return &AddressParser{
		primaryPattern: regexp.MustCompile(`^(.+?),\s*(.+?),\s*([A-Z]{2})\s+(\d{5}(?:-\d{4})?)$`),
	}
}

var defaultParser = NewAddressParser()

// Parse decomposes raw using the shared default parser
func Parse(identifier, raw string) PostalRecord {
	return defaultParser.Parse(identifier, raw)
}

// ParseNullable treats a NULL column the same as empty input
func ParseNullable(identifier string, raw sql.NullString) PostalRecord {
	if !raw.Valid {
		return PostalRecord{Identifier: identifier, Status: EmptyInput}
	}
	return defaultParser.Parse(identifier, raw.String)
}

// Parse decomposes raw. It never fails: bad input degrades to Unparseable.
func (p *AddressParser) Parse(identifier, raw string) PostalRecord {
	return p.ParseDebug(false, identifier, raw)
}

// ParseDebug is Parse with optional debug output
func (p *AddressParser) ParseDebug(localDebug bool, identifier, raw string) PostalRecord {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	s := strings.TrimSpace(raw)
	if s == "" {
		debug.DebugOutput(localDebug, "%s: empty input", identifier)
		return PostalRecord{Identifier: identifier, Status: EmptyInput}
	}
	debug.DebugOutput(localDebug, "%s: input %q", identifier, s)

	if m := p.primaryPattern.FindStringSubmatch(s); m != nil {
		debug.DebugOutput(localDebug, "Primary match: %q", m[1:])
		return PostalRecord{
			Identifier:    identifier,
			StreetAddress: m[1],
			City:          m[2],
			StateCode:     m[3],
			PostalCode:    m[4],
			Status:        Matched,
		}
	}

	if rec, ok := parseFallback(identifier, s); ok {
		debug.DebugOutput(localDebug, "Fallback match: %s", rec)
		return rec
	}

	debug.DebugOutput(localDebug, "%s: unparseable", identifier)
	return PostalRecord{Identifier: identifier, Status: Unparseable}
}

// parseFallback splits on ", " and reads street, city and "STATE ZIP" by position.
// The state/zip segment is split once on a space and never validated, so a zip+4
// stays a single token and lowercase states pass through.
func parseFallback(identifier, s string) (PostalRecord, bool) {
	parts := strings.Split(s, fallbackSeparator)
	if len(parts) < 3 {
		return PostalRecord{}, false
	}
	if parts[0] == "" || parts[1] == "" {
		return PostalRecord{}, false
	}

	rec := PostalRecord{
		Identifier:    identifier,
		StreetAddress: parts[0],
		City:          parts[1],
		Status:        FallbackMatched,
	}
	stateZip := strings.SplitN(parts[2], " ", 2)
	rec.StateCode = stateZip[0]
	if len(stateZip) > 1 {
		rec.PostalCode = stateZip[1]
	}
	return rec, true
}
