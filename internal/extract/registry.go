package extract

import (
	"database/sql"

	"github.com/runnerr0/retrace/internal/browser"
	"github.com/runnerr0/retrace/internal/schema"
)

// requirement names a table (and optionally a column on it) that must
// exist for an extractor to run. Requirements are probed uniformly by
// the orchestrator; a miss skips the category instead of erroring, so
// schema drift across browser versions degrades gracefully.
type requirement struct {
	Table  string
	Column string
}

// Extractor is one (engine, event-category) extraction routine.
type Extractor struct {
	Category string
	Requires []requirement
	run      func(db *sql.DB, label string, g *tsGuard) ([]Event, error)
}

// Available reports whether every requirement is satisfied by the
// open database.
func (x Extractor) Available(db *sql.DB) bool {
	for _, r := range x.Requires {
		if r.Column == "" {
			if !schema.TableExists(db, r.Table) {
				return false
			}
		} else if !schema.ColumnExists(db, r.Table, r.Column) {
			return false
		}
	}
	return true
}

// ForEngine returns the fixed, ordered extractor catalogue for an
// engine classification.
func ForEngine(engine browser.Engine) []Extractor {
	switch engine {
	case browser.Gecko:
		return geckoExtractors
	case browser.Chromium:
		return chromiumExtractors
	case browser.WebKit:
		return webkitExtractors
	}
	return nil
}
