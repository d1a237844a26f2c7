package extract

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// openFixture creates an in-memory database and applies the given DDL.
func openFixture(t *testing.T, ddl string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	if ddl != "" {
		_, err = db.Exec(ddl)
		require.NoError(t, err)
	}
	return db
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	_, err := db.Exec(query, args...)
	require.NoError(t, err)
}

// Engine-native encodings of a time.Time, mirroring how each browser
// stores its rows.
func geckoUS(tm time.Time) int64    { return tm.Unix() * 1_000_000 }
func chromiumUS(tm time.Time) int64 { return (tm.Unix() + 11644473600) * 1_000_000 }
func webkitSec(tm time.Time) float64 {
	return float64(tm.Unix() - 978307200)
}

// A fixed instant inside the sanity window used across fixtures.
var refTime = time.Date(2023, 4, 10, 9, 30, 0, 0, time.UTC)

const geckoCoreDDL = `
	CREATE TABLE moz_places (
		id INTEGER PRIMARY KEY,
		url TEXT,
		title TEXT,
		description TEXT,
		last_visit_date INTEGER,
		origin_id INTEGER
	);
	CREATE TABLE moz_historyvisits (
		id INTEGER PRIMARY KEY,
		place_id INTEGER,
		visit_date INTEGER,
		visit_type INTEGER,
		from_visit INTEGER
	);
`

const chromiumCoreDDL = `
	CREATE TABLE urls (
		id INTEGER PRIMARY KEY,
		url TEXT,
		title TEXT,
		visit_count INTEGER DEFAULT 0,
		typed_count INTEGER DEFAULT 0,
		last_visit_time INTEGER DEFAULT 0
	);
	CREATE TABLE visits (
		id INTEGER PRIMARY KEY,
		url INTEGER,
		visit_time INTEGER,
		transition INTEGER DEFAULT 0,
		visit_duration INTEGER DEFAULT 0,
		from_visit INTEGER,
		opener_visit INTEGER
	);
`

const chromiumDownloadsDDL = `
	CREATE TABLE downloads (
		id INTEGER PRIMARY KEY,
		target_path TEXT,
		tab_url TEXT,
		referrer TEXT,
		start_time INTEGER,
		end_time INTEGER,
		last_access_time INTEGER,
		received_bytes INTEGER DEFAULT 0,
		total_bytes INTEGER DEFAULT 0,
		state INTEGER DEFAULT 0,
		danger_type INTEGER DEFAULT 0,
		mime_type TEXT
	);
	CREATE TABLE downloads_url_chains (
		id INTEGER,
		chain_index INTEGER,
		url TEXT
	);
`

const webkitCoreDDL = `
	CREATE TABLE history_items (
		id INTEGER PRIMARY KEY,
		url TEXT,
		visit_count INTEGER DEFAULT 0,
		visit_count_score INTEGER DEFAULT 0
	);
	CREATE TABLE history_visits (
		id INTEGER PRIMARY KEY,
		history_item INTEGER,
		visit_time REAL,
		title TEXT,
		load_successful INTEGER DEFAULT 1,
		origin INTEGER DEFAULT 0,
		redirect_source INTEGER,
		redirect_destination INTEGER
	);
`
