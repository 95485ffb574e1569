package validate

import (
	"fmt"
	"math"

	"github.com/caldera-energy/pricefeed/internal/model"
)

const CodeDiscrepancy = "VAL-010"

const maxDiscrepancies = 100

// Discrepancy describes one day where two sources disagree on a
// commodity's price beyond tolerance.
type Discrepancy struct {
	Timestamp string
	SourceA   string
	SourceB   string
	PriceA    float64
	PriceB    float64
	PctDiff   float64
}

func (d Discrepancy) String() string {
	return fmt.Sprintf("%s: %s vs %s on %s: %.2f vs %.2f (%.1f%% diff)",
		CodeDiscrepancy, d.SourceA, d.SourceB, d.Timestamp, d.PriceA, d.PriceB, d.PctDiff*100)
}

// ValidateCrossSource inner-joins every pair of sources on matching
// (commodity, timestamp), flags pairs whose relative difference
// exceeds tolerance, and returns a capped discrepancy list plus
// consistency_score = 100 * (1 - discrepancy_rate).
func ValidateCrossSource(bySource map[string][]model.PriceRecord, tolerance float64) ([]Discrepancy, float64) {
	type key struct {
		commodity string
		day       string
	}
	index := make(map[string]map[key]model.PriceRecord, len(bySource))
	for source, records := range bySource {
		m := make(map[key]model.PriceRecord, len(records))
		for _, r := range records {
			m[key{r.Commodity, dayKey(r.Timestamp)}] = r
		}
		index[source] = m
	}

	sources := make([]string, 0, len(bySource))
	for s := range bySource {
		sources = append(sources, s)
	}

	var discrepancies []Discrepancy
	comparisons := 0
	flagged := 0

	for i := 0; i < len(sources); i++ {
		for j := i + 1; j < len(sources); j++ {
			a, b := sources[i], sources[j]
			for k, recA := range index[a] {
				recB, ok := index[b][k]
				if !ok {
					continue
				}
				comparisons++
				if recA.Price == 0 {
					continue
				}
				pctDiff := math.Abs(recA.Price-recB.Price) / math.Abs(recA.Price)
				if pctDiff > tolerance {
					flagged++
					if len(discrepancies) < maxDiscrepancies {
						discrepancies = append(discrepancies, Discrepancy{
							Timestamp: k.day,
							SourceA:   a,
							SourceB:   b,
							PriceA:    recA.Price,
							PriceB:    recB.Price,
							PctDiff:   pctDiff,
						})
					}
				}
			}
		}
	}

	if comparisons == 0 {
		return discrepancies, 100
	}
	discrepancyRate := float64(flagged) / float64(comparisons)
	score := 100 * (1 - discrepancyRate)
	if score < 0 {
		score = 0
	}
	return discrepancies, score
}
