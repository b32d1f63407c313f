package quality

import (
	"strings"
)

// PrintReport writes the report to the configured logger writer.
// If no logger writer is configured, it produces no output.
func PrintReport(r Report) {
	logf("score=%.1f%% (%d/%d cells, %d rows)", r.Score*100, r.Passed, r.Total, r.Rows)

	if len(r.MissingColumns) > 0 {
		logf("missing columns: %s", strings.Join(r.MissingColumns, ", "))
	}
	for _, c := range r.Columns {
		if c.Missing == 0 && c.OutOfBounds() == 0 && c.UnknownCategories == 0 {
			continue
		}
		logf("%s: missing=%d below=%d above=%d unknown=%d", c.Name, c.Missing, c.BelowHard, c.AboveHard, c.UnknownCategories)
	}
}
