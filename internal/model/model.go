// Package model holds the data types shared across the ingestion,
// validation, storage, and orchestration layers.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Commodity is a tradable reference series, e.g. WTI_CRUDE.
type Commodity struct {
	ID          int64   `json:"id" db:"id"`
	Symbol      string  `json:"symbol" db:"symbol"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
	Unit        *string `json:"unit,omitempty" db:"unit"`
}

// DataSource is a provider a PriceRecord was fetched from.
type DataSource struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
	BaseURL     *string `json:"base_url,omitempty" db:"base_url"`
	APIVersion  *string `json:"api_version,omitempty" db:"api_version"`
}

// PriceRecord is one observation for a commodity from a source on a day.
type PriceRecord struct {
	Timestamp time.Time `json:"timestamp" db:"ts"`
	Commodity string    `json:"commodity" db:"commodity"`
	Source    string    `json:"source" db:"source"`
	Price     float64   `json:"price" db:"price"`
	Volume    *float64  `json:"volume,omitempty" db:"volume"`
	Open      *float64  `json:"open,omitempty" db:"open"`
	High      *float64  `json:"high,omitempty" db:"high"`
	Low       *float64  `json:"low,omitempty" db:"low"`
	Close     *float64  `json:"close,omitempty" db:"close"`
}

// Observation is the raw {date, value} pair returned by a source client
// before it is lifted into a PriceRecord by the orchestrator.
type Observation struct {
	Date  time.Time
	Value float64
}

// QualityLevel buckets an OverallScore into a human category.
type QualityLevel string

const (
	QualityExcellent QualityLevel = "excellent"
	QualityGood      QualityLevel = "good"
	QualityFair      QualityLevel = "fair"
	QualityPoor      QualityLevel = "poor"
	QualityUnusable  QualityLevel = "unusable"
)

// QualityReport is the outcome of running the validator's four checks
// against one source's batch of PriceRecords.
type QualityReport struct {
	Source            string       `json:"source"`
	SchemaScore       float64      `json:"schema_score"`
	CompletenessScore float64      `json:"completeness_score"`
	ConsistencyScore  float64      `json:"consistency_score"`
	OutlierScore      float64      `json:"outlier_score"`
	OverallScore      float64      `json:"overall_score"`
	Level             QualityLevel `json:"level"`
	Warnings          []string     `json:"warnings,omitempty"`
	Recommendations   []string     `json:"recommendations,omitempty"`
	Errors            []string     `json:"errors,omitempty"`
}

// RunStatus is the terminal disposition of a pipeline run.
type RunStatus string

const (
	RunPending        RunStatus = "pending"
	RunSuccess        RunStatus = "success"
	RunPartialSuccess RunStatus = "partial_success"
	RunFailed         RunStatus = "failed"
)

// ExecutionResult aggregates the outcome of one Orchestrator.Run call.
type ExecutionResult struct {
	RunID         uuid.UUID          `json:"run_id"`
	Status        RunStatus          `json:"status"`
	StartedAt     time.Time          `json:"started_at"`
	EndedAt       time.Time          `json:"ended_at"`
	Fetched       map[string]int     `json:"fetched"`
	Stored        map[string]int     `json:"stored"`
	QualityScores map[string]float64 `json:"quality_scores"`
	Errors        []string           `json:"errors,omitempty"`
	Warnings      []string           `json:"warnings,omitempty"`
	Summary       string             `json:"summary"`
}

// Complete derives Status from accumulated errors/fetched/stored counts
// and stamps EndedAt. Mirrors the pending->terminal transition every
// run goes through exactly once: success requires no errors and every
// source that fetched rows also stored some; partial_success requires
// at least one source stored and at least one error or dropped source;
// failed means nothing was stored at all.
func (r *ExecutionResult) Complete(now time.Time) {
	r.EndedAt = now
	totalStored := 0
	dropped := 0
	for source, n := range r.Stored {
		totalStored += n
		if r.Fetched[source] > 0 && n == 0 {
			dropped++
		}
	}
	switch {
	case totalStored == 0:
		r.Status = RunFailed
	case len(r.Errors) == 0 && dropped == 0:
		r.Status = RunSuccess
	default:
		r.Status = RunPartialSuccess
	}
}

// TimeRange is an inclusive [Start, End] window used for fetch windows
// and storage range queries.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// RunMode selects how Orchestrator.Run computes its fetch TimeRange.
type RunMode string

const (
	ModeIncremental RunMode = "incremental"
	ModeFullRefresh RunMode = "full_refresh"
	ModeBackfill    RunMode = "backfill"
)

// RunOptions parameterizes one Orchestrator.Run call. Zero-valued
// fields fall back to the pipeline's Config defaults.
type RunOptions struct {
	Commodities []string
	Sources     []string
	Mode        RunMode
	Start       time.Time
	End         time.Time

	// QualityThreshold overrides Config.Validation.QualityThreshold
	// when non-zero: the score below which a source's batch is dropped.
	QualityThreshold float64
	// ExcludeWeekends overrides Config.Validation.ExcludeWeekends when
	// set.
	ExcludeWeekends *bool
	// ContinueOnPartialFailure overrides
	// Config.ErrorHandling.ContinueOnPartialFailure when set.
	ContinueOnPartialFailure *bool
	// MaxParallelFetches caps fan-out concurrency; zero means the
	// number of enabled sources.
	MaxParallelFetches int
}
