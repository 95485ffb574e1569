package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/caldera-energy/pricefeed/internal/model"
)

// renderSummary builds the human-readable banner attached to a run's
// ExecutionResult, grouping per-source counts and any warnings/errors.
func renderSummary(r *model.ExecutionResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "run %s: %s (%s)\n", r.RunID, r.Status, r.EndedAt.Sub(r.StartedAt).Round(1e6))

	for _, source := range sortedKeys(r.Fetched) {
		fetched := r.Fetched[source]
		stored := r.Stored[source]
		line := fmt.Sprintf("  %s: fetched %d, stored %d", source, fetched, stored)
		if score, ok := r.QualityScores[source]; ok {
			line += fmt.Sprintf(", quality %.1f", score)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, "  %d warning(s):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "    - %s\n", w)
		}
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "  %d error(s):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "    - %s\n", e)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
