package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbeddedFilesPresent(t *testing.T) {
	entries, err := files.ReadDir(".")
	assert.NoError(t, err)

	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}

	for _, want := range []string{
		"0001_commodities.up.sql", "0001_commodities.down.sql",
		"0002_data_sources.up.sql", "0002_data_sources.down.sql",
		"0003_price_data.up.sql", "0003_price_data.down.sql",
	} {
		assert.True(t, names[want], "expected embedded file %s", want)
	}
}
