package validate

import (
	"math"
	"sort"

	"github.com/caldera-energy/pricefeed/internal/model"
)

// Outlier tags one record flagged by either detector.
type Outlier struct {
	Index    int
	Record   model.PriceRecord
	ZScore   bool
	IQR      bool
}

// DetectOutliers runs a rolling z-score check (mean/std over the last
// window points, flagging |x-mean|/std > zThreshold) and a global IQR
// check (flagging outside [Q1-k*IQR, Q3+k*IQR]) over records' prices.
// Records must be sorted ascending by Timestamp. Returns the flagged
// outliers and a 0-100 score: 100 * (1 - outliers/total).
func DetectOutliers(records []model.PriceRecord, window int, zThreshold, iqrMultiplier float64) ([]Outlier, float64) {
	if len(records) == 0 {
		return nil, 100
	}

	prices := make([]float64, len(records))
	for i, r := range records {
		prices[i] = r.Price
	}

	zFlags := rollingZScoreFlags(prices, window, zThreshold)
	iqrFlags := iqrFlags(prices, iqrMultiplier)

	var outliers []Outlier
	flagged := 0
	for i := range records {
		z, iq := zFlags[i], iqrFlags[i]
		if z || iq {
			flagged++
			outliers = append(outliers, Outlier{Index: i, Record: records[i], ZScore: z, IQR: iq})
		}
	}

	score := 100 * (1 - float64(flagged)/float64(len(records)))
	return outliers, score
}

// rollingZScoreFlags computes, for each index i, the mean/std of the
// window ending at i (min_periods=1, matching pandas' rolling default)
// and flags |x-mean|/std > threshold.
func rollingZScoreFlags(values []float64, window int, threshold float64) []bool {
	flags := make([]bool, len(values))
	if window <= 0 {
		window = len(values)
	}
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		win := values[start : i+1]
		mean := meanOf(win)
		std := stdDevOf(win, mean)
		if std == 0 {
			continue
		}
		z := math.Abs(values[i]-mean) / std
		flags[i] = z > threshold
	}
	return flags
}

// iqrFlags computes the global interquartile range and flags values
// outside [Q1-k*IQR, Q3+k*IQR].
func iqrFlags(values []float64, k float64) []bool {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q1 := percentile(sorted, 0.25)
	q3 := percentile(sorted, 0.75)
	iqr := q3 - q1
	lower := q1 - k*iqr
	upper := q3 + k*iqr

	flags := make([]bool, len(values))
	for i, v := range values {
		flags[i] = v < lower || v > upper
	}
	return flags
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDevOf(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// percentile uses linear interpolation between closest ranks, matching
// pandas' default quantile method, over an already-sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
