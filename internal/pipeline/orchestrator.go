// Package pipeline drives one end-to-end run: window computation,
// parallel fetch, validation, the quality gate, storage, and result
// aggregation.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caldera-energy/pricefeed/internal/config"
	"github.com/caldera-energy/pricefeed/internal/metrics"
	"github.com/caldera-energy/pricefeed/internal/model"
	"github.com/caldera-energy/pricefeed/internal/sources"
	"github.com/caldera-energy/pricefeed/internal/storage"
	"github.com/caldera-energy/pricefeed/internal/symbolmap"
	"github.com/caldera-energy/pricefeed/internal/validate"
)

// Orchestrator drives pipeline runs against a fixed set of source
// clients and one storage adapter.
type Orchestrator struct {
	Clients map[string]sources.Client
	Store   storage.Adapter
	Config  *config.Config
	// Metrics is optional; when set, stage timings and per-source
	// counters are reported to it.
	Metrics *metrics.Registry
}

// sourceOutcome captures what happened to one source during a run,
// collected by the fan-out and folded into the ExecutionResult
// sequentially afterward so aggregation stays commutative regardless
// of fetch completion order.
type sourceOutcome struct {
	source   string
	batch    []model.PriceRecord
	fetched  int
	stored   int
	quality  *model.QualityReport
	warnings []string
	errs     []string
}

// Run fetches, validates, and stores price data for every source that
// matches opts.Sources, windowing each source/commodity pair
// independently, gating low-quality batches before they reach
// storage, and folding the outcomes into one ExecutionResult.
func (o *Orchestrator) Run(ctx context.Context, opts model.RunOptions) (*model.ExecutionResult, error) {
	result := &model.ExecutionResult{
		RunID:         uuid.New(),
		Status:        model.RunPending,
		StartedAt:     time.Now().UTC(),
		Fetched:       map[string]int{},
		Stored:        map[string]int{},
		QualityScores: map[string]float64{},
	}

	enabledSources := o.resolveSources(opts.Sources)
	if len(enabledSources) == 0 {
		result.Errors = append(result.Errors, "no enabled sources matched the requested filter")
		return o.finish(result, model.RunFailed), nil
	}

	maxParallel := len(enabledSources)
	if opts.MaxParallelFetches > 0 && opts.MaxParallelFetches < maxParallel {
		maxParallel = opts.MaxParallelFetches
	}

	var mu sync.Mutex
	outcomes := make([]sourceOutcome, 0, len(enabledSources))

	tasks := make([]fetchTask, 0, len(enabledSources))
	for _, source := range enabledSources {
		source := source
		tasks = append(tasks, fetchTask{
			source: source,
			run: func() {
				outcome := o.fetchSource(ctx, source, opts)
				mu.Lock()
				outcomes = append(outcomes, outcome)
				mu.Unlock()
			},
		})
	}

	runFanOut(tasks, maxParallel)

	// Cross-source consistency needs every source's batch at once, so
	// validation and storage run sequentially after the fetch barrier
	// rather than inside the per-source fan-out.
	bySource := make(map[string][]model.PriceRecord, len(outcomes))
	for _, outcome := range outcomes {
		if len(outcome.batch) > 0 {
			bySource[outcome.source] = outcome.batch
		}
	}
	_, consistencyScore := validate.ValidateCrossSource(bySource, o.Config.Validation.Tolerances.CrossSourceTolerance)

	for i := range outcomes {
		o.validateAndStore(ctx, &outcomes[i], opts, consistencyScore)

		outcome := outcomes[i]
		result.Fetched[outcome.source] = outcome.fetched
		result.Stored[outcome.source] = outcome.stored
		if outcome.quality != nil {
			result.QualityScores[outcome.source] = outcome.quality.OverallScore
			if o.Metrics != nil {
				o.Metrics.RecordQuality(outcome.source, outcome.quality.OverallScore)
			}
		}
		result.Warnings = append(result.Warnings, outcome.warnings...)
		result.Errors = append(result.Errors, outcome.errs...)

		if o.Metrics != nil {
			o.Metrics.RecordFetch(outcome.source, outcome.fetched)
			o.Metrics.RecordStore(outcome.source, outcome.stored)
		}

		if len(outcome.errs) > 0 && !continueOnPartialFailure(o.Config, opts) {
			return o.finish(result, model.RunFailed), nil
		}
	}

	return o.finish(result, ""), nil
}

// finish stamps EndedAt, derives (or forces, when override is
// non-empty) the terminal status, renders the summary, and reports the
// run to metrics.
func (o *Orchestrator) finish(result *model.ExecutionResult, override model.RunStatus) *model.ExecutionResult {
	result.Complete(time.Now().UTC())
	if override != "" {
		result.Status = override
	}
	result.Summary = renderSummary(result)
	if o.Metrics != nil {
		o.Metrics.RecordRun(string(result.Status))
	}
	return result
}

// fetchSource fetches and normalizes one source's batch across every
// configured commodity for that source. It does not validate or
// store: cross-source consistency needs every source's batch fetched
// first, so that step runs after the fan-out completes.
func (o *Orchestrator) fetchSource(ctx context.Context, source string, opts model.RunOptions) sourceOutcome {
	outcome := sourceOutcome{source: source}

	client, ok := o.Clients[source]
	if !ok {
		outcome.errs = append(outcome.errs, source+": no client configured")
		return outcome
	}

	sourceCfg := o.Config.DataSources[source]
	nativeIDs := sourceCfg.NativeIDs()

	for _, nativeID := range nativeIDs {
		symbol, ok := symbolmap.Lookup(source, nativeID)
		if !ok {
			outcome.warnings = append(outcome.warnings, source+": "+nativeID+" has no canonical symbol mapping, skipped")
			continue
		}
		if len(opts.Commodities) > 0 && !contains(opts.Commodities, symbol) {
			continue
		}

		window, err := computeWindow(ctx, o.Store, symbol, source, opts, o.Config.DateRange.LookbackDays)
		if err != nil {
			outcome.errs = append(outcome.errs, source+"/"+symbol+": "+err.Error())
			continue
		}

		observations, err := client.FetchSeries(ctx, nativeID, window.Start, window.End)
		if err != nil {
			outcome.errs = append(outcome.errs, source+"/"+symbol+": "+err.Error())
			continue
		}

		if len(observations) == 0 {
			outcome.warnings = append(outcome.warnings, source+"/"+symbol+": fetched zero rows for window")
			continue
		}

		outcome.fetched += len(observations)
		for _, obs := range observations {
			outcome.batch = append(outcome.batch, model.PriceRecord{
				Timestamp: obs.Date,
				Commodity: symbol,
				Source:    source,
				Price:     obs.Value,
			})
		}
	}

	return outcome
}

// validateAndStore scores outcome.batch (folding in the run-wide
// cross-source consistency score), gates it against the configured
// quality threshold, and stores it when it passes. It mutates outcome
// in place.
func (o *Orchestrator) validateAndStore(ctx context.Context, outcome *sourceOutcome, opts model.RunOptions, consistencyScore float64) {
	source, batch := outcome.source, outcome.batch
	if len(batch) == 0 {
		return
	}

	report := o.validateBatch(source, batch, opts, consistencyScore)
	outcome.quality = &report

	threshold := qualityThreshold(o.Config, opts)
	if report.OverallScore < threshold {
		outcome.warnings = append(outcome.warnings, source+": quality score "+formatScore(report.OverallScore)+" below threshold, batch dropped")
		return
	}

	if _, err := o.Store.EnsureSource(ctx, source); err != nil {
		outcome.errs = append(outcome.errs, source+": "+err.Error())
		return
	}
	for _, symbol := range uniqueCommodities(batch) {
		if _, err := o.Store.EnsureCommodity(ctx, symbol); err != nil {
			outcome.errs = append(outcome.errs, source+"/"+symbol+": "+err.Error())
			return
		}
	}

	stored, err := o.Store.UpsertBatch(ctx, batch)
	if err != nil {
		outcome.errs = append(outcome.errs, source+": "+err.Error())
		return
	}
	outcome.stored = stored
}

func (o *Orchestrator) validateBatch(source string, batch []model.PriceRecord, opts model.RunOptions, consistencyScore float64) model.QualityReport {
	schemaScore, schemaFailures := validate.ValidateSchema(batch)

	start, end := batch[0].Timestamp, batch[0].Timestamp
	for _, r := range batch {
		if r.Timestamp.Before(start) {
			start = r.Timestamp
		}
		if r.Timestamp.After(end) {
			end = r.Timestamp
		}
	}
	completenessScore, _, completenessWarnings := validate.CheckCompleteness(
		batch, start, end, excludeWeekends(o.Config, opts), o.Config.Validation.Completeness.MaxGapDays)

	_, outlierScore := validate.DetectOutliers(
		batch, o.Config.Validation.Outliers.RollingWindowDays,
		o.Config.Validation.Outliers.ZScoreThreshold, o.Config.Validation.Outliers.IQRMultiplier)

	weights := validate.Weights{
		Completeness:     o.Config.Validation.QualityWeights.Completeness,
		Consistency:      o.Config.Validation.QualityWeights.Consistency,
		SchemaCompliance: o.Config.Validation.QualityWeights.SchemaCompliance,
		Outlier:          o.Config.Validation.QualityWeights.Outlier,
	}

	return validate.GenerateQualityReport(source, schemaScore, completenessScore, consistencyScore, outlierScore,
		weights, completenessWarnings, schemaFailures)
}

func (o *Orchestrator) resolveSources(filter []string) []string {
	var enabled []string
	for name, cfg := range o.Config.DataSources {
		if !cfg.Enabled {
			continue
		}
		if len(filter) > 0 && !contains(filter, name) {
			continue
		}
		if _, ok := o.Clients[name]; ok {
			enabled = append(enabled, name)
		}
	}
	return enabled
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func uniqueCommodities(batch []model.PriceRecord) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range batch {
		if !seen[r.Commodity] {
			seen[r.Commodity] = true
			out = append(out, r.Commodity)
		}
	}
	return out
}

func formatScore(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// qualityThreshold resolves the run's effective quality gate: the
// per-run override when set, else the configured default.
func qualityThreshold(cfg *config.Config, opts model.RunOptions) float64 {
	if opts.QualityThreshold != 0 {
		return opts.QualityThreshold
	}
	return float64(cfg.Validation.QualityThreshold)
}

// excludeWeekends resolves the run's effective weekend-exclusion flag:
// the per-run override when set, else the configured default.
func excludeWeekends(cfg *config.Config, opts model.RunOptions) bool {
	if opts.ExcludeWeekends != nil {
		return *opts.ExcludeWeekends
	}
	return cfg.Validation.ExcludeWeekends
}

// continueOnPartialFailure resolves the run's effective partial-
// failure policy: the per-run override when set, else the configured
// default.
func continueOnPartialFailure(cfg *config.Config, opts model.RunOptions) bool {
	if opts.ContinueOnPartialFailure != nil {
		return *opts.ContinueOnPartialFailure
	}
	return cfg.ErrorHandling.ContinueOnPartialFailure
}
