package extract

import "fmt"

// DefaultWarnLimit is the number of timestamp validation failures a
// single category tolerates before aborting early. A run of bad
// timestamps in one category is almost always a systematic epoch bug,
// not isolated corrupt rows.
const DefaultWarnLimit = 10

// CategoryResult is the outcome of one extractor. Warnings and the
// abort flag travel by value instead of global counters so the
// orchestrator owns all accumulation.
type CategoryResult struct {
	Category string
	Events   []Event
	Warnings []string
	// Skipped means a required table or column was absent and the
	// extractor never ran. Not an error.
	Skipped bool
	// Aborted means the extractor stopped early after too many
	// timestamp failures; Events holds the rows converted before that.
	Aborted bool
	// Err records a query/runtime failure confined to this category.
	Err error
}

// tsGuard counts per-category timestamp validation failures and trips
// the abort flag at the limit.
type tsGuard struct {
	limit    int
	warnings []string
	aborted  bool
}

func newGuard(limit int) *tsGuard {
	if limit <= 0 {
		limit = DefaultWarnLimit
	}
	return &tsGuard{limit: limit}
}

// pass reports whether the conversion succeeded. On failure it records
// a warning and, at the limit, trips the abort flag. Callers soft-skip
// the row when pass returns false and stop iterating once aborted.
func (g *tsGuard) pass(category string, err error) bool {
	if err == nil {
		return true
	}
	g.warnings = append(g.warnings, fmt.Sprintf("%s: %v", category, err))
	if len(g.warnings) >= g.limit {
		g.aborted = true
	}
	return false
}
