package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/domain-scraper/internal/debug"
	"github.com/domain-scraper/internal/postal"
)

// AbbrevRules handles street-suffix and directional abbreviation expansion
type AbbrevRules struct {
	rules []abbrevRule
}

type abbrevRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// usAbbreviations follows USPS Publication 28 suffix and directional forms
var usAbbreviations = [][2]string{
	{"ST", "STREET"},
	{"AVE", "AVENUE"},
	{"AV", "AVENUE"},
	{"BLVD", "BOULEVARD"},
	{"RD", "ROAD"},
	{"DR", "DRIVE"},
	{"LN", "LANE"},
	{"CT", "COURT"},
	{"PL", "PLACE"},
	{"SQ", "SQUARE"},
	{"TER", "TERRACE"},
	{"CIR", "CIRCLE"},
	{"PKWY", "PARKWAY"},
	{"HWY", "HIGHWAY"},
	{"FWY", "FREEWAY"},
	{"EXPY", "EXPRESSWAY"},
	{"TRL", "TRAIL"},
	{"WY", "WAY"},
	{"HTS", "HEIGHTS"},
	{"STE", "SUITE"},
	{"APT", "APARTMENT"},
	{"BLDG", "BUILDING"},
	{"FL", "FLOOR"},
	{"N", "NORTH"},
	{"S", "SOUTH"},
	{"E", "EAST"},
	{"W", "WEST"},
	{"NE", "NORTHEAST"},
	{"NW", "NORTHWEST"},
	{"SE", "SOUTHEAST"},
	{"SW", "SOUTHWEST"},
}

// NewAbbrevRules compiles the default US abbreviation rules
func NewAbbrevRules() *AbbrevRules {
	rules := make([]abbrevRule, 0, len(usAbbreviations))
	for _, pair := range usAbbreviations {
		rules = append(rules, abbrevRule{
			pattern:     regexp.MustCompile(`\b` + pair[0] + `\b`),
			replacement: pair[1],
		})
	}
	return &AbbrevRules{rules: rules}
}

// Expand applies abbreviation rules to upper-case text
func (ar *AbbrevRules) Expand(text string) string {
	result := text
	for _, rule := range ar.rules {
		result = rule.pattern.ReplaceAllString(result, rule.replacement)
	}
	return result
}

var defaultRules = NewAbbrevRules()

// US ZIP, optionally zip+4
var reZip = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)

// Only a country name or punctuation may follow the zip
var reZipTail = regexp.MustCompile(`^[\s,.]*(?:USA|US|UNITED STATES)?[\s,.]*$`)

// CanonicalAddress normalizes a US address for comparison and dedupe
func CanonicalAddress(raw string) (addrCan, zip string, tokens []string) {
	return CanonicalAddressDebug(false, raw)
}

// CanonicalAddressDebug normalizes an address with optional debug output
func CanonicalAddressDebug(localDebug bool, raw string) (addrCan, zip string, tokens []string) {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	if strings.TrimSpace(raw) == "" {
		return "", "", []string{}
	}

	s := strings.ToUpper(strings.TrimSpace(raw))
	debug.DebugOutput(localDebug, "Input: %s", s)

	if loc := trailingZip(s); loc != nil {
		zip = s[loc[0]:loc[1]]
		s = s[:loc[0]]
		debug.DebugOutput(localDebug, "Extracted zip: %s", zip)
	}

	// Remove punctuation but preserve spaces
	b := strings.Builder{}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	s = strings.Join(strings.Fields(b.String()), " ")
	debug.DebugOutput(localDebug, "After punctuation removal: %s", s)

	// A trailing state is kept out of expansion so FL or CT stay codes
	s, state := splitTrailingState(replaceStateNames(s))
	s = defaultRules.Expand(s)
	if state != "" {
		s += " " + state
	}
	debug.DebugOutput(localDebug, "After abbreviation expansion: %s", s)

	tokens = strings.Fields(s)
	s = strings.Join(tokens, " ")
	debug.DebugOutput(localDebug, "Final canonical: %s", s)

	return s, zip, tokens
}

// trailingZip locates a zip at the end of s. A five-digit run followed by
// more address text, such as a house number, is not a zip.
func trailingZip(s string) []int {
	all := reZip.FindAllStringIndex(s, -1)
	if len(all) == 0 {
		return nil
	}
	loc := all[len(all)-1]
	if !reZipTail.MatchString(s[loc[1]:]) {
		return nil
	}
	return loc
}

// CanonicalKey builds the dedupe key for a parsed record. Unstructured
// records have no key.
func CanonicalKey(rec postal.PostalRecord) string {
	if !rec.Status.Structured() {
		return ""
	}
	canonical, zip, _ := CanonicalAddress(rec.StreetAddress + ", " + rec.City)
	state := rec.StateCode
	if code, ok := StateCode(state); ok {
		state = code
	}
	return strings.Join([]string{canonical, strings.ToUpper(state), zipBase(rec.PostalCode, zip)}, "|")
}

// zipBase keeps the five-digit base so zip and zip+4 forms share a key
func zipBase(candidates ...string) string {
	for _, c := range candidates {
		if m := reZip.FindString(c); m != "" {
			return m[:5]
		}
	}
	return ""
}

// TokenOverlap calculates overlap ratio between two token sets.
// Duplicates count once, so the result is always in [0, 1].
func TokenOverlap(tokens1, tokens2 []string) float64 {
	if len(tokens1) == 0 && len(tokens2) == 0 {
		return 1.0
	}
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0.0
	}

	set1 := make(map[string]bool)
	for _, token := range tokens1 {
		set1[token] = true
	}
	set2 := make(map[string]bool)
	for _, token := range tokens2 {
		set2[token] = true
	}

	overlap := 0
	for token := range set2 {
		if set1[token] {
			overlap++
		}
	}

	// Return overlap as ratio of smaller set
	minLen := len(set1)
	if len(set2) < minLen {
		minLen = len(set2)
	}

	return float64(overlap) / float64(minLen)
}

// IsBlank checks if an address is effectively blank after normalization
func IsBlank(addr string) bool {
	canonical, _, _ := CanonicalAddress(addr)
	return strings.TrimSpace(canonical) == ""
}
