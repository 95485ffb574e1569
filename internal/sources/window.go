package sources

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/caldera-energy/pricefeed/internal/errs"
	"github.com/caldera-energy/pricefeed/internal/model"
)

// validateWindow rejects an inverted [start, end] range and clamps a
// future end to now, logging a warning when it does. Every adapter
// calls this before issuing its request.
func validateWindow(source string, start, end time.Time) (time.Time, error) {
	if start.After(end) {
		return end, errs.New(errs.Validation, source, "start date is after end date", nil)
	}
	now := time.Now().UTC()
	if end.After(now) {
		log.Warn().Str("source", source).Time("end", end).Msg("fetch window end clamped to now")
		end = now
	}
	return end, nil
}

// sortObservations orders obs ascending by date in place. Downstream
// consumers, notably the outlier detector's rolling window, assume
// pre-sorted input.
func sortObservations(obs []model.Observation) {
	sort.Slice(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
}
