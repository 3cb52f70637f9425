package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchURL(t *testing.T) {
	assert.Equal(t, "https://www.google.com/maps/search/acme.com", SearchURL("acme.com"))
	assert.Equal(t, "https://www.google.com/maps/search/acme%20co", SearchURL("acme co"))
}

func TestListingMerge(t *testing.T) {
	l := Listing{Name: "First"}
	l.merge(Listing{Name: "Second", RawAddress: "1 A St, B, CA 90001"})
	assert.Equal(t, "First", l.Name)
	assert.Equal(t, "1 A St, B, CA 90001", l.RawAddress)
	assert.False(t, l.Complete())
}
