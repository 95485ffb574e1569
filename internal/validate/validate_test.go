package validate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caldera-energy/pricefeed/internal/model"
)

func mustDay(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestValidateSchemaCleanBatch(t *testing.T) {
	records := []model.PriceRecord{
		{Timestamp: mustDay("2026-01-01"), Commodity: "WTI_CRUDE", Source: "eia", Price: 71.5},
		{Timestamp: mustDay("2026-01-02"), Commodity: "WTI_CRUDE", Source: "eia", Price: 72.0},
	}
	score, failures := ValidateSchema(records)
	assert.Equal(t, 100.0, score)
	assert.Empty(t, failures)
}

func TestValidateSchemaFlagsNegativePrice(t *testing.T) {
	records := []model.PriceRecord{
		{Timestamp: mustDay("2026-01-01"), Commodity: "WTI_CRUDE", Source: "eia", Price: -5},
	}
	score, failures := ValidateSchema(records)
	assert.Less(t, score, 100.0)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], CodeTypeMismatch)
}

func TestValidateSchemaFlagsMissingFields(t *testing.T) {
	records := []model.PriceRecord{
		{Timestamp: mustDay("2026-01-01"), Price: 71.5},
	}
	score, failures := ValidateSchema(records)
	assert.Less(t, score, 100.0)
	assert.NotEmpty(t, failures)
	assert.Contains(t, failures[0], CodeMissingField)
}

func TestDetectOutliersFlagsSpike(t *testing.T) {
	base := mustDay("2026-01-01")
	var records []model.PriceRecord
	for i := 0; i < 30; i++ {
		records = append(records, model.PriceRecord{
			Timestamp: base.AddDate(0, 0, i),
			Commodity: "WTI_CRUDE", Source: "eia",
			Price: 70 + float64(i%3)*0.1,
		})
	}
	records = append(records, model.PriceRecord{
		Timestamp: base.AddDate(0, 0, 30), Commodity: "WTI_CRUDE", Source: "eia", Price: 500,
	})

	outliers, score := DetectOutliers(records, 30, 3.0, 1.5)
	require.NotEmpty(t, outliers)
	assert.Less(t, score, 100.0)
	assert.Equal(t, len(records)-1, outliers[0].Index)
}

func TestDetectOutliersNoFlagsOnStableSeries(t *testing.T) {
	base := mustDay("2026-01-01")
	var records []model.PriceRecord
	for i := 0; i < 10; i++ {
		records = append(records, model.PriceRecord{
			Timestamp: base.AddDate(0, 0, i), Commodity: "WTI_CRUDE", Source: "eia", Price: 70,
		})
	}
	outliers, score := DetectOutliers(records, 30, 3.0, 1.5)
	assert.Empty(t, outliers)
	assert.Equal(t, 100.0, score)
}

func TestCheckCompletenessDetectsGap(t *testing.T) {
	start := mustDay("2026-01-01")
	end := mustDay("2026-01-10")
	records := []model.PriceRecord{
		{Timestamp: mustDay("2026-01-01"), Commodity: "WTI_CRUDE", Source: "eia", Price: 70},
		{Timestamp: mustDay("2026-01-02"), Commodity: "WTI_CRUDE", Source: "eia", Price: 70},
		{Timestamp: mustDay("2026-01-09"), Commodity: "WTI_CRUDE", Source: "eia", Price: 70},
		{Timestamp: mustDay("2026-01-10"), Commodity: "WTI_CRUDE", Source: "eia", Price: 70},
	}
	score, gaps, warnings := CheckCompleteness(records, start, end, false, 2)
	assert.Less(t, score, 100.0)
	require.Len(t, gaps, 1)
	assert.NotEmpty(t, warnings)
}

func TestCheckCompletenessExcludesWeekends(t *testing.T) {
	start := mustDay("2026-01-05") // Monday
	end := mustDay("2026-01-09")   // Friday
	var records []model.PriceRecord
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		records = append(records, model.PriceRecord{Timestamp: d, Commodity: "WTI_CRUDE", Source: "eia", Price: 70})
	}
	score, gaps, _ := CheckCompleteness(records, start, end, true, 2)
	assert.Equal(t, 100.0, score)
	assert.Empty(t, gaps)
}

func TestValidateCrossSourceFlagsDiscrepancy(t *testing.T) {
	bySource := map[string][]model.PriceRecord{
		"eia": {{Timestamp: mustDay("2026-01-01"), Commodity: "WTI_CRUDE", Source: "eia", Price: 70}},
		"fred": {{Timestamp: mustDay("2026-01-01"), Commodity: "WTI_CRUDE", Source: "fred", Price: 85}},
	}
	discrepancies, score := ValidateCrossSource(bySource, 0.05)
	require.Len(t, discrepancies, 1)
	assert.Less(t, score, 100.0)
	assert.Contains(t, discrepancies[0].String(), CodeDiscrepancy)
}

func TestValidateCrossSourceNoDiscrepancyWithinTolerance(t *testing.T) {
	bySource := map[string][]model.PriceRecord{
		"eia":  {{Timestamp: mustDay("2026-01-01"), Commodity: "WTI_CRUDE", Source: "eia", Price: 70}},
		"fred": {{Timestamp: mustDay("2026-01-01"), Commodity: "WTI_CRUDE", Source: "fred", Price: 70.5}},
	}
	discrepancies, score := ValidateCrossSource(bySource, 0.05)
	assert.Empty(t, discrepancies)
	assert.Equal(t, 100.0, score)
}

func TestGenerateQualityReportLevels(t *testing.T) {
	weights := Weights{Completeness: 0.4, Consistency: 0.3, SchemaCompliance: 0.2, Outlier: 0.1}

	excellent := GenerateQualityReport("eia", 100, 100, 100, 100, weights, nil, nil)
	assert.Equal(t, model.QualityExcellent, excellent.Level)

	poor := GenerateQualityReport("eia", 50, 50, 50, 50, weights, nil, nil)
	assert.Equal(t, model.QualityPoor, poor.Level)
	assert.NotEmpty(t, poor.Recommendations)

	unusable := GenerateQualityReport("eia", 10, 10, 10, 10, weights, nil, nil)
	assert.Equal(t, model.QualityUnusable, unusable.Level)
}

func TestPercentileInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 2.0, percentile(sorted, 0.25), 0.01)
	assert.InDelta(t, 4.0, percentile(sorted, 0.75), 0.01)
}

func TestStdDevOfSinglePointIsZero(t *testing.T) {
	assert.Equal(t, 0.0, stdDevOf([]float64{5}, 5))
}

func TestMeanOf(t *testing.T) {
	assert.True(t, math.Abs(meanOf([]float64{1, 2, 3})-2.0) < 0.0001)
}
