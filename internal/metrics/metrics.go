// Package metrics exposes the Prometheus registry for the ingestion
// pipeline's fetch/validate/store stages.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Registry holds every metric the orchestrator and its adapters report.
type Registry struct {
	StageDuration *prometheus.HistogramVec
	StageResults  *prometheus.CounterVec

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	RecordsFetched *prometheus.CounterVec
	RecordsStored  *prometheus.CounterVec
	QualityScore   *prometheus.GaugeVec

	RunsTotal  *prometheus.CounterVec
	RunsActive prometheus.Gauge
}

// NewRegistry builds and registers every metric against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	m := &Registry{
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricefeed_stage_duration_seconds",
				Help:    "Duration of each pipeline stage (fetch, validate, store) in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage", "source", "result"},
		),
		StageResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricefeed_stage_results_total",
				Help: "Count of stage completions by source and result.",
			},
			[]string{"stage", "source", "result"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricefeed_cache_hits_total",
				Help: "Total adapter cache hits by source.",
			},
			[]string{"source"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricefeed_cache_misses_total",
				Help: "Total adapter cache misses by source.",
			},
			[]string{"source"},
		),
		RecordsFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricefeed_records_fetched_total",
				Help: "Observations fetched per source.",
			},
			[]string{"source"},
		),
		RecordsStored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricefeed_records_stored_total",
				Help: "Rows upserted per source.",
			},
			[]string{"source"},
		),
		QualityScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pricefeed_quality_score",
				Help: "Most recent overall quality score per source (0-100).",
			},
			[]string{"source"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricefeed_runs_total",
				Help: "Completed orchestrator runs by terminal status.",
			},
			[]string{"status"},
		),
		RunsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pricefeed_runs_active",
				Help: "Number of orchestrator runs currently in flight.",
			},
		),
	}

	reg.MustRegister(
		m.StageDuration,
		m.StageResults,
		m.CacheHits,
		m.CacheMisses,
		m.RecordsFetched,
		m.RecordsStored,
		m.QualityScore,
		m.RunsTotal,
		m.RunsActive,
	)

	return m
}

// StageTimer tracks one stage invocation's duration.
type StageTimer struct {
	registry *Registry
	stage    string
	source   string
	start    time.Time
}

// StartStage begins timing a named stage for a source.
func (m *Registry) StartStage(stage, source string) *StageTimer {
	return &StageTimer{registry: m, stage: stage, source: source, start: time.Now()}
}

// Stop records the elapsed duration and result for the stage.
func (st *StageTimer) Stop(result string) {
	duration := time.Since(st.start)
	st.registry.StageDuration.WithLabelValues(st.stage, st.source, result).Observe(duration.Seconds())
	st.registry.StageResults.WithLabelValues(st.stage, st.source, result).Inc()

	log.Debug().
		Str("stage", st.stage).
		Str("source", st.source).
		Str("result", result).
		Dur("duration", duration).
		Msg("pipeline stage completed")
}

// RecordCacheHit increments the cache-hit counter for source.
func (m *Registry) RecordCacheHit(source string) { m.CacheHits.WithLabelValues(source).Inc() }

// RecordCacheMiss increments the cache-miss counter for source.
func (m *Registry) RecordCacheMiss(source string) { m.CacheMisses.WithLabelValues(source).Inc() }

// RecordFetch adds n to the fetched-records counter for source.
func (m *Registry) RecordFetch(source string, n int) {
	m.RecordsFetched.WithLabelValues(source).Add(float64(n))
}

// RecordStore adds n to the stored-records counter for source.
func (m *Registry) RecordStore(source string, n int) {
	m.RecordsStored.WithLabelValues(source).Add(float64(n))
}

// RecordQuality sets the latest overall quality score for source.
func (m *Registry) RecordQuality(source string, score float64) {
	m.QualityScore.WithLabelValues(source).Set(score)
}

// RecordRun increments the completed-runs counter for the given
// terminal status.
func (m *Registry) RecordRun(status string) {
	m.RunsTotal.WithLabelValues(status).Inc()
}
