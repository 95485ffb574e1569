package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/caldera-energy/pricefeed/internal/errs"
	"github.com/caldera-energy/pricefeed/internal/model"
	"github.com/caldera-energy/pricefeed/internal/storage"
)

// computeWindow resolves opts into a concrete [start, end] fetch
// window: incremental mode resumes from the latest stored observation
// (or falls back to lookbackDays when storage is empty), full_refresh
// and backfill use the configured or requested bounds outright.
func computeWindow(ctx context.Context, store storage.Adapter, commodity, source string, opts model.RunOptions, lookbackDays int) (model.TimeRange, error) {
	end := opts.End
	if end.IsZero() {
		end = time.Now().UTC().Truncate(24 * time.Hour)
	}
	if end.After(time.Now().UTC()) {
		log.Warn().Str("commodity", commodity).Str("source", source).Time("end", end).Msg("fetch window end clamped to now")
		end = time.Now().UTC().Truncate(24 * time.Hour)
	}

	start := opts.Start
	if start.IsZero() {
		switch opts.Mode {
		case model.ModeIncremental:
			latest, found, err := store.GetLatestTimestamp(ctx, commodity, source)
			if err != nil {
				return model.TimeRange{}, err
			}
			if found {
				start = latest.AddDate(0, 0, 1)
			} else {
				log.Warn().Str("commodity", commodity).Str("source", source).Msg("no stored coverage; falling back to lookback window")
				start = end.AddDate(0, 0, -lookbackDays)
			}
		default: // full_refresh, backfill
			start = end.AddDate(0, 0, -lookbackDays)
		}
	}

	if start.After(end) {
		return model.TimeRange{}, errs.New(errs.Validation, "pipeline", "computed start is after end", nil)
	}
	return model.TimeRange{Start: start, End: end}, nil
}
