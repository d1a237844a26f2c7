package extract

import (
	"database/sql"
	"sort"
	"strings"

	"github.com/runnerr0/retrace/internal/browser"
)

// Options tunes a run. The zero value is usable.
type Options struct {
	// Label overrides the engine-derived browser label used in
	// data_type fields and messages.
	Label string
	// WarnLimit overrides DefaultWarnLimit for per-category aborts.
	WarnLimit int
}

// Report is the outcome of one full extraction run.
type Report struct {
	Engine browser.Engine
	Label  string
	// Events is every emitted event, stable-sorted by Timestamp.
	Events []Event
	// Categories holds one result per registered extractor, in
	// registry order, including skipped and failed ones.
	Categories []CategoryResult
}

// Warnings returns all per-category warnings in category order.
func (r *Report) Warnings() []string {
	var all []string
	for _, c := range r.Categories {
		all = append(all, c.Warnings...)
	}
	return all
}

// Run invokes every extractor registered for the engine, in declared
// order, and returns the merged, globally sorted event list. A failure
// inside one category never aborts the others; it is recorded on that
// category's result and the run continues.
func Run(db *sql.DB, engine browser.Engine, opts Options) *Report {
	label := opts.Label
	if label == "" {
		label = engine.DefaultLabel()
	}
	// data_type tags are always lowercase regardless of display label.
	tag := strings.ToLower(label)

	report := &Report{Engine: engine, Label: label}

	for _, x := range ForEngine(engine) {
		result := CategoryResult{Category: x.Category}

		if !x.Available(db) {
			result.Skipped = true
			report.Categories = append(report.Categories, result)
			continue
		}

		guard := newGuard(opts.WarnLimit)
		events, err := x.run(db, tag, guard)
		result.Events = events
		result.Warnings = guard.warnings
		result.Aborted = guard.aborted
		result.Err = err

		report.Events = append(report.Events, events...)
		report.Categories = append(report.Categories, result)
	}

	sort.SliceStable(report.Events, func(i, j int) bool {
		return report.Events[i].Timestamp < report.Events[j].Timestamp
	})

	return report
}
