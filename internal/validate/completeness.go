package validate

import (
	"fmt"
	"time"

	"github.com/caldera-energy/pricefeed/internal/model"
)

const CodeGap = "VAL-007"

// Gap is a run of missing expected trading days longer than the
// configured threshold.
type Gap struct {
	From time.Time
	To   time.Time
	Days int
}

// CheckCompleteness counts the expected observations in [start, end]
// under a daily frequency (optionally excluding Saturdays/Sundays),
// enumerates gaps longer than maxGapDays, and returns
// completeness_score = 100 * actual/expected.
func CheckCompleteness(records []model.PriceRecord, start, end time.Time, excludeWeekends bool, maxGapDays int) (score float64, gaps []Gap, warnings []string) {
	present := make(map[string]bool, len(records))
	for _, r := range records {
		present[dayKey(r.Timestamp)] = true
	}

	expected := 0
	var gapStart time.Time
	gapLen := 0

	flushGap := func(cursor time.Time) {
		if gapLen > maxGapDays {
			gaps = append(gaps, Gap{From: gapStart, To: cursor.AddDate(0, 0, -1), Days: gapLen})
			warnings = append(warnings, fmt.Sprintf("%s: gap of %d days starting %s", CodeGap, gapLen, gapStart.Format("2006-01-02")))
		}
		gapLen = 0
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if excludeWeekends && isWeekend(d) {
			continue
		}
		expected++
		if present[dayKey(d)] {
			flushGap(d)
			continue
		}
		if gapLen == 0 {
			gapStart = d
		}
		gapLen++
	}
	flushGap(end.AddDate(0, 0, 1))

	if expected == 0 {
		return 100, gaps, warnings
	}
	score = 100 * float64(len(records)) / float64(expected)
	if score > 100 {
		score = 100
	}
	return score, gaps, warnings
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
