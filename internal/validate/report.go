package validate

import "github.com/caldera-energy/pricefeed/internal/model"

// Weights configures GenerateQualityReport's weighted sum. The four
// weights are expected to sum to 1.0.
type Weights struct {
	Completeness     float64
	Consistency      float64
	SchemaCompliance float64
	Outlier          float64
}

// GenerateQualityReport combines the four sub-scores into one weighted
// OverallScore, maps it to a QualityLevel, and attaches recommendations
// for whichever sub-scores fall below their own threshold.
func GenerateQualityReport(source string, schema, completeness, consistency, outlier float64, weights Weights, warnings, errors []string) model.QualityReport {
	overall := weights.SchemaCompliance*schema +
		weights.Completeness*completeness +
		weights.Consistency*consistency +
		weights.Outlier*outlier

	report := model.QualityReport{
		Source:            source,
		SchemaScore:       schema,
		CompletenessScore: completeness,
		ConsistencyScore:  consistency,
		OutlierScore:      outlier,
		OverallScore:      overall,
		Level:             qualityLevel(overall),
		Warnings:          warnings,
		Errors:            errors,
	}
	report.Recommendations = recommendations(report)
	return report
}

func qualityLevel(score float64) model.QualityLevel {
	switch {
	case score >= 95:
		return model.QualityExcellent
	case score >= 85:
		return model.QualityGood
	case score >= 70:
		return model.QualityFair
	case score >= 50:
		return model.QualityPoor
	default:
		return model.QualityUnusable
	}
}

func recommendations(r model.QualityReport) []string {
	var out []string
	if r.SchemaScore < 90 {
		out = append(out, "review upstream schema: records are failing field/type checks")
	}
	if r.CompletenessScore < 90 {
		out = append(out, "investigate gaps in the fetched window; consider a backfill run")
	}
	if r.ConsistencyScore < 90 {
		out = append(out, "cross-source prices diverge beyond tolerance; verify provider health")
	}
	if r.OutlierScore < 90 {
		out = append(out, "unusual price movements detected; confirm against a secondary source")
	}
	return out
}
