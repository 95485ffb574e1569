package sources

import (
	"context"
	"time"

	"github.com/caldera-energy/pricefeed/internal/model"
)

// Client fetches a time series for seriesID over [start, end] from one
// upstream provider.
type Client interface {
	// Name identifies the provider for logging, metrics, and symbol
	// mapping ("eia", "fred", "quote").
	Name() string
	FetchSeries(ctx context.Context, seriesID string, start, end time.Time) ([]model.Observation, error)
}
