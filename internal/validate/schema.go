// Package validate implements the four data-quality checks run against
// a source's batch of price records, and combines them into one
// QualityReport.
package validate

import (
	"fmt"
	"math"

	"github.com/caldera-energy/pricefeed/internal/model"
)

// Schema check codes, matching the taxonomy a downstream operator would
// grep logs for.
const (
	CodeMissingField = "VAL-006"
	CodeTypeMismatch = "VAL-001"
)

// ValidateSchema checks every record for required fields and sane
// value shapes (non-NaN, non-infinite, strictly positive price),
// returning a 0-100 score: 100 * (1 - failed_checks/total_checks).
func ValidateSchema(records []model.PriceRecord) (score float64, failures []string) {
	if len(records) == 0 {
		return 100, nil
	}

	totalChecks := 0
	failedChecks := 0

	for i, r := range records {
		totalChecks++
		if r.Timestamp.IsZero() {
			failedChecks++
			failures = append(failures, fmt.Sprintf("%s: record %d: missing timestamp", CodeMissingField, i))
		}
		if r.Commodity == "" {
			failedChecks++
			failures = append(failures, fmt.Sprintf("%s: record %d: missing commodity", CodeMissingField, i))
		}
		if r.Source == "" {
			failedChecks++
			failures = append(failures, fmt.Sprintf("%s: record %d: missing source", CodeMissingField, i))
		}

		totalChecks++
		if math.IsNaN(r.Price) || math.IsInf(r.Price, 0) || r.Price <= 0 {
			failedChecks++
			failures = append(failures, fmt.Sprintf("%s: record %d: price is not a valid positive number", CodeTypeMismatch, i))
		}
	}

	score = math.Max(0, (1-float64(failedChecks)/float64(totalChecks))*100)
	return score, failures
}
