// Package storage defines the persistence contract the pipeline
// orchestrator writes through; internal/storage/postgres is its one
// concrete implementation.
package storage

import (
	"context"
	"time"

	"github.com/caldera-energy/pricefeed/internal/model"
)

// Statistics summarizes a commodity's stored history, aggregated
// across every source that has reported it.
type Statistics struct {
	Count       int
	MinPrice    float64
	MaxPrice    float64
	AvgPrice    float64
	TotalVolume float64
	EarliestAt  time.Time
	LatestAt    time.Time
}

// Adapter is the storage layer's write and read surface.
type Adapter interface {
	// UpsertBatch writes records idempotently keyed on
	// (timestamp, commodity, source); a re-run over the same window
	// overwrites rather than duplicates.
	UpsertBatch(ctx context.Context, records []model.PriceRecord) (stored int, err error)
	// GetLatestTimestamp returns the most recent stored timestamp for
	// commodity/source, used to compute an incremental fetch window.
	GetLatestTimestamp(ctx context.Context, commodity, source string) (time.Time, bool, error)
	GetLatestFor(ctx context.Context, commodity, source string) (model.PriceRecord, bool, error)
	GetRange(ctx context.Context, commodity, source string, tr model.TimeRange) ([]model.PriceRecord, error)
	// GetStatistics aggregates count/mean/min/max/total-volume for
	// commodity across every source, optionally bounded to [start, end]
	// (either may be zero to leave that bound open).
	GetStatistics(ctx context.Context, commodity string, start, end time.Time) (Statistics, error)
	// EnsureCommodity/EnsureSource upsert-on-first-sight the small
	// reference tables price_data foreign-keys into.
	EnsureCommodity(ctx context.Context, symbol string) (int64, error)
	EnsureSource(ctx context.Context, name string) (int64, error)
}
