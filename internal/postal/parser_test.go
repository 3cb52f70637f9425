package postal

import (
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want PostalRecord
	}{
		{
			name: "canonical address",
			raw:  "123 Main St, Springfield, IL 62704",
			want: PostalRecord{StreetAddress: "123 Main St", City: "Springfield", StateCode: "IL", PostalCode: "62704", Status: Matched},
		},
		{
			name: "zip plus four kept verbatim",
			raw:  "123 Main St, Springfield, IL 62704-1234",
			want: PostalRecord{StreetAddress: "123 Main St", City: "Springfield", StateCode: "IL", PostalCode: "62704-1234", Status: Matched},
		},
		{
			name: "surrounding whitespace trimmed",
			raw:  "  400 E Broadway Blvd, Tucson, AZ 85711 \n",
			want: PostalRecord{StreetAddress: "400 E Broadway Blvd", City: "Tucson", StateCode: "AZ", PostalCode: "85711", Status: Matched},
		},
		{
			name: "no space after comma still primary",
			raw:  "9 Elm Rd,Sierra Vista,AZ 85635",
			want: PostalRecord{StreetAddress: "9 Elm Rd", City: "Sierra Vista", StateCode: "AZ", PostalCode: "85635", Status: Matched},
		},
		{
			name: "extra commas land in city",
			raw:  "1 Main St, Suite 200, Springfield, IL 62704",
			want: PostalRecord{StreetAddress: "1 Main St", City: "Suite 200, Springfield", StateCode: "IL", PostalCode: "62704", Status: Matched},
		},
		{
			name: "missing space before zip falls back",
			raw:  "123 Main St, Springfield, IL62704",
			want: PostalRecord{StreetAddress: "123 Main St", City: "Springfield", StateCode: "IL62704", Status: FallbackMatched},
		},
		{
			name: "third segment split once",
			raw:  "A, B, C D E",
			want: PostalRecord{StreetAddress: "A", City: "B", StateCode: "C", PostalCode: "D E", Status: FallbackMatched},
		},
		{
			name: "lowercase state only accepted by fallback",
			raw:  "12 Oak Ave, Bisbee, az 85603",
			want: PostalRecord{StreetAddress: "12 Oak Ave", City: "Bisbee", StateCode: "az", PostalCode: "85603", Status: FallbackMatched},
		},
		{
			name: "two segments unparseable",
			raw:  "123 Main St, Springfield",
			want: PostalRecord{Status: Unparseable},
		},
		{
			name: "no commas",
			raw:  "Random text with no commas",
			want: PostalRecord{Status: Unparseable},
		},
		{
			name: "empty street fails fallback",
			raw:  ", Springfield, IL",
			want: PostalRecord{Status: Unparseable},
		},
		{
			name: "empty",
			raw:  "",
			want: PostalRecord{Status: EmptyInput},
		},
		{
			name: "whitespace only",
			raw:  "   ",
			want: PostalRecord{Status: EmptyInput},
		},
	}

	parser := NewAddressParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parser.Parse("example.com", tt.raw)
			tt.want.Identifier = "example.com"
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseZipPlusFourDiffersByPath(t *testing.T) {
	primary := Parse("a.com", "1 Main St, Tucson, AZ 85701-1234")
	require.Equal(t, Matched, primary.Status)
	assert.Equal(t, "AZ", primary.StateCode)
	assert.Equal(t, "85701-1234", primary.PostalCode)

	// Trailing country defeats the anchored pattern, so only the fallback can run.
	fallback := Parse("a.com", "1 Main St, Tucson, AZ 85701-1234, USA")
	require.Equal(t, FallbackMatched, fallback.Status)
	assert.Equal(t, "AZ", fallback.StateCode)
	assert.Equal(t, "85701-1234", fallback.PostalCode)
}

func TestParsePrimaryWinsOverFallback(t *testing.T) {
	// Both paths could split this input; the primary result must be reported.
	rec := Parse("x", "5 Pine St, Benson, AZ 85602")
	assert.Equal(t, Matched, rec.Status)
}

func TestParseInvariants(t *testing.T) {
	inputs := []string{
		"", " ", "no commas", "a,b", ",,", ", , ", "a, , b", "1 A St, B, ",
		"1 A St, B, CA 90001", "x, y, z", strings.Repeat("x, ", 10000),
	}
	for _, raw := range inputs {
		rec := Parse("id", raw)
		if rec.Status.Structured() {
			assert.NotEmpty(t, rec.StreetAddress, "input %q", raw)
			assert.NotEmpty(t, rec.City, "input %q", raw)
		} else {
			assert.Equal(t, PostalRecord{Identifier: "id", Status: rec.Status}, rec, "input %q", raw)
		}
	}
}

func TestParseIdempotent(t *testing.T) {
	raw := "123 Main St, Springfield, IL 62704"
	first, err := json.Marshal(Parse("d.com", raw))
	require.NoError(t, err)
	second, err := json.Marshal(Parse("d.com", raw))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := Parse("c.com", "123 Main St, Springfield, IL 62704")
			assert.Equal(t, Matched, rec.Status)
		}()
	}
	wg.Wait()
}

func TestParseNullable(t *testing.T) {
	assert.Equal(t, EmptyInput, ParseNullable("n.com", sql.NullString{}).Status)
	rec := ParseNullable("n.com", sql.NullString{String: "1 A St, B, CA 90001", Valid: true})
	assert.Equal(t, Matched, rec.Status)
	assert.Equal(t, "n.com", rec.Identifier)
}

func TestParseStatusText(t *testing.T) {
	for _, status := range AllStatuses {
		got, err := ParseStatusFromString(status.String())
		require.NoError(t, err)
		assert.Equal(t, status, got)
	}
	_, err := ParseStatusFromString("maybe")
	assert.Error(t, err)
	assert.Equal(t, "unknown", ParseStatus(0).String())

	data, err := json.Marshal(PostalRecord{Identifier: "a", Status: FallbackMatched})
	require.NoError(t, err)
	assert.JSONEq(t, `{"identifier":"a","parse_status":"fallback_matched"}`, string(data))

	var rec PostalRecord
	require.NoError(t, json.Unmarshal([]byte(`{"identifier":"b","parse_status":"empty_input"}`), &rec))
	assert.Equal(t, EmptyInput, rec.Status)
}

func TestOneline(t *testing.T) {
	assert.Equal(t, "1 A St, Town, CA 90001", Parse("", "1 A St, Town, CA 90001").Oneline())
	assert.Equal(t, "1 A St, Town, IL62704", Parse("", "1 A St, Town, IL62704").Oneline())
	assert.Equal(t, "", Parse("", "nothing").Oneline())
}

func TestTally(t *testing.T) {
	tally := NewTally()
	assert.Zero(t, tally.SuccessRate())

	for _, s := range []ParseStatus{Matched, Matched, FallbackMatched, Unparseable, EmptyInput} {
		tally.Add(s)
	}
	assert.Equal(t, 5, tally.Total())
	assert.Equal(t, 2, tally.Count(Matched))
	assert.InDelta(t, 0.6, tally.SuccessRate(), 1e-9)
	assert.Equal(t, map[string]int{
		"matched": 2, "fallback_matched": 1, "unparseable": 1, "empty_input": 1,
	}, tally.Snapshot())
}
