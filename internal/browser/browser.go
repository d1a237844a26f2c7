// Package browser classifies history databases by engine family and
// owns the fatal error kinds of a run: input validation and engine
// detection.
package browser

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/runnerr0/retrace/internal/schema"
)

// Engine identifies one of the three supported storage-schema families.
type Engine int

const (
	// Gecko is the Firefox family (places.sqlite, moz_* tables).
	Gecko Engine = iota + 1
	// Chromium is the Chrome/Edge/Brave family (History, urls/visits).
	Chromium
	// WebKit is the Safari family (History.db, history_items/history_visits).
	WebKit
)

// String returns the canonical engine identifier.
func (e Engine) String() string {
	switch e {
	case Gecko:
		return "gecko"
	case Chromium:
		return "chromium"
	case WebKit:
		return "webkit"
	}
	return fmt.Sprintf("engine(%d)", int(e))
}

// DefaultLabel returns the human-readable browser label used in
// data_type fields when the caller supplies none.
func (e Engine) DefaultLabel() string {
	switch e {
	case Gecko:
		return "Firefox"
	case Chromium:
		return "Chromium"
	case WebKit:
		return "Safari"
	}
	return "Browser"
}

// ParseEngine resolves an engine identifier or one of its recognized
// case-insensitive aliases. The "auto" identifier is not an engine;
// callers handle it before parsing.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gecko", "firefox":
		return Gecko, nil
	case "chromium", "chrome":
		return Chromium, nil
	case "webkit", "safari":
		return WebKit, nil
	}
	return 0, fmt.Errorf("unknown browser engine %q (use gecko, chromium, webkit, or auto)", s)
}

// ValidationError is fatal: the input path is missing, not a regular
// file, or not readable as a SQLite database.
type ValidationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid database %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid database %s: %s", e.Path, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DetectionError is fatal: no recognized engine signature was found,
// or the caller declined a mismatched explicit classification.
type DetectionError struct {
	Tables []string
	Reason string
}

func (e *DetectionError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("no recognized browser engine signature; observed tables: [%s]",
		strings.Join(e.Tables, ", "))
}

// signature is the table pair whose joint presence identifies an
// engine. Checked in declaration order so a database that somehow
// satisfies more than one resolves deterministically.
type signature struct {
	engine Engine
	tables [2]string
}

var signatures = []signature{
	{Gecko, [2]string{"moz_places", "moz_historyvisits"}},
	{Chromium, [2]string{"urls", "visits"}},
	{WebKit, [2]string{"history_items", "history_visits"}},
}

// Detect classifies an open database by table-name presence alone.
func Detect(db *sql.DB) (Engine, error) {
	for _, sig := range signatures {
		if schema.TableExists(db, sig.tables[0]) && schema.TableExists(db, sig.tables[1]) {
			return sig.engine, nil
		}
	}

	tables, err := schema.TableNames(db)
	if err != nil {
		return 0, &DetectionError{Reason: fmt.Sprintf("cannot list tables: %v", err)}
	}
	return 0, &DetectionError{Tables: tables}
}

// OpenReadOnly opens the database at path strictly read-only. The
// connection never takes a write lock, so it is safe alongside a live
// browser holding its own.
func OpenReadOnly(path string) (*sql.DB, error) {
	dsn := "file:" + path + "?mode=ro&_query_only=1"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// recognized browser-name substrings scanned in the input path, most
// specific first (chromium before chrome so "chromium" isn't claimed
// by the "chrome" prefix).
var pathNames = []string{
	"chromium", "chrome", "brave", "edge", "opera", "vivaldi",
	"firefox", "waterfox", "librewolf", "safari",
}

// DefaultOutputName derives an output CSV filename from the engine and
// any recognized browser-name substring in the input path. Pure.
func DefaultOutputName(engine Engine, inputPath string) string {
	lower := strings.ToLower(filepath.ToSlash(inputPath))
	name := strings.ToLower(engine.DefaultLabel())
	for _, candidate := range pathNames {
		if strings.Contains(lower, candidate) {
			name = candidate
			break
		}
	}
	return name + "_history.csv"
}
