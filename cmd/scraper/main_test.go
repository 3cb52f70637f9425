package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domain-scraper/internal/config"
)

func TestNewScraper(t *testing.T) {
	cfg = config.FromEnv()

	s, closeFn, err := newScraper("meta")
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, "meta", s.Name())

	_, _, err = newScraper("yellowpages")
	assert.ErrorContains(t, err, "unknown source")
}
