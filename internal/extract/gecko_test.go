package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeckoVisits(t *testing.T) {
	db := openFixture(t, geckoCoreDDL)
	mustExec(t, db, `INSERT INTO moz_places (id, url, title, description) VALUES (1, 'https://example.com/', 'Example', 'An example page')`)
	mustExec(t, db, `INSERT INTO moz_places (id, url, title) VALUES (2, 'https://next.example.com/', 'Next')`)
	mustExec(t, db, `INSERT INTO moz_historyvisits (id, place_id, visit_date, visit_type, from_visit) VALUES (1, 1, ?, 2, 0)`, geckoUS(refTime))
	mustExec(t, db, `INSERT INTO moz_historyvisits (id, place_id, visit_date, visit_type, from_visit) VALUES (2, 2, ?, 1, 1)`, geckoUS(refTime.Add(time.Minute)))

	events, err := geckoVisits(db, "firefox", newGuard(0))
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, geckoUS(refTime), first.Timestamp)
	assert.Equal(t, "2023-04-10T09:30:00+00:00", first.Datetime)
	assert.Equal(t, "Visit Time", first.TimestampDesc)
	assert.Equal(t, "Visited: Example - An example page", first.Message)
	assert.Equal(t, "firefox:history:visit", first.DataType)

	vt, _ := first.Get("visit_type")
	assert.Equal(t, "Typed", vt)
	_, hasFrom := first.Get("from_url")
	assert.False(t, hasFrom, "first visit has no predecessor")

	// Second visit resolves its from-visit chain to the first URL.
	from, ok := events[1].Get("from_url")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/", from)
}

func TestGeckoVisits_NoDescriptionColumn(t *testing.T) {
	// Pre-Firefox-63 schema: moz_places has no description column.
	db := openFixture(t, `
		CREATE TABLE moz_places (id INTEGER PRIMARY KEY, url TEXT, title TEXT, last_visit_date INTEGER);
		CREATE TABLE moz_historyvisits (id INTEGER PRIMARY KEY, place_id INTEGER, visit_date INTEGER, visit_type INTEGER, from_visit INTEGER);
	`)
	mustExec(t, db, `INSERT INTO moz_places (id, url, title) VALUES (1, 'https://old.example.com/', 'Old')`)
	mustExec(t, db, `INSERT INTO moz_historyvisits (id, place_id, visit_date, visit_type, from_visit) VALUES (1, 1, ?, 1, 0)`, geckoUS(refTime))

	events, err := geckoVisits(db, "firefox", newGuard(0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Visited: Old", events[0].Message)
}

func TestGeckoVisits_TitleFallbackAndUnknownType(t *testing.T) {
	db := openFixture(t, geckoCoreDDL)
	mustExec(t, db, `INSERT INTO moz_places (id, url) VALUES (1, 'https://untitled.example.com/')`)
	mustExec(t, db, `INSERT INTO moz_historyvisits (id, place_id, visit_date, visit_type, from_visit) VALUES (1, 1, ?, 42, 0)`, geckoUS(refTime))

	events, err := geckoVisits(db, "firefox", newGuard(0))
	require.NoError(t, err)
	require.Len(t, events, 1)

	title, _ := events[0].Get("title")
	assert.Equal(t, NoTitle, title)
	vt, _ := events[0].Get("visit_type")
	assert.Equal(t, "Unknown(42)", vt)
}

func TestGeckoBookmarks_ModifiedPair(t *testing.T) {
	db := openFixture(t, geckoCoreDDL+`
		CREATE TABLE moz_bookmarks (id INTEGER PRIMARY KEY, type INTEGER, fk INTEGER, title TEXT, dateAdded INTEGER, lastModified INTEGER);
	`)
	mustExec(t, db, `INSERT INTO moz_places (id, url, title) VALUES (1, 'https://example.com/', 'Example')`)

	added := geckoUS(refTime)
	modified := geckoUS(refTime.Add(2 * time.Hour))
	mustExec(t, db, `INSERT INTO moz_bookmarks (type, fk, title, dateAdded, lastModified) VALUES (1, 1, 'Saved Example', ?, ?)`, added, modified)
	// Unmodified bookmark: one event only.
	mustExec(t, db, `INSERT INTO moz_bookmarks (type, fk, title, dateAdded, lastModified) VALUES (1, 1, 'Untouched', ?, ?)`, added, added)
	// Folder rows (type 2) are not URL bookmarks.
	mustExec(t, db, `INSERT INTO moz_bookmarks (type, fk, title, dateAdded, lastModified) VALUES (2, NULL, 'Folder', ?, ?)`, added, added)

	events, err := geckoBookmarks(db, "firefox", newGuard(0))
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "Bookmark Added", events[0].TimestampDesc)
	assert.Equal(t, "firefox:bookmark:added", events[0].DataType)
	assert.Equal(t, "Bookmark Modified", events[1].TimestampDesc)
	assert.Equal(t, modified, events[1].Timestamp)
	assert.Equal(t, "Bookmark Added", events[2].TimestampDesc)
}

func TestGeckoDownloads(t *testing.T) {
	db := openFixture(t, geckoCoreDDL+`
		CREATE TABLE moz_annos (id INTEGER PRIMARY KEY, place_id INTEGER, anno_attribute_id INTEGER, content TEXT, dateAdded INTEGER);
		CREATE TABLE moz_anno_attributes (id INTEGER PRIMARY KEY, name TEXT);
	`)
	mustExec(t, db, `INSERT INTO moz_places (id, url) VALUES (1, 'https://example.com/file.zip')`)
	mustExec(t, db, `INSERT INTO moz_anno_attributes (id, name) VALUES (1, 'downloads/destinationFileURI')`)
	mustExec(t, db, `INSERT INTO moz_anno_attributes (id, name) VALUES (2, 'downloads/metaData')`)
	mustExec(t, db, `INSERT INTO moz_annos (place_id, anno_attribute_id, content, dateAdded) VALUES (1, 1, 'file:///home/u/Downloads/file.zip', ?)`, geckoUS(refTime))
	mustExec(t, db, `INSERT INTO moz_annos (place_id, anno_attribute_id, content, dateAdded) VALUES (1, 2, '{}', ?)`, geckoUS(refTime))

	events, err := geckoDownloads(db, "firefox", newGuard(0))
	require.NoError(t, err)
	require.Len(t, events, 1, "only destinationFileURI annotations are downloads")

	e := events[0]
	assert.Equal(t, "firefox:download:start", e.DataType)
	target, _ := e.Get("target_path")
	assert.Equal(t, "file:///home/u/Downloads/file.zip", target)
}

func TestGeckoFormHistory_Pair(t *testing.T) {
	db := openFixture(t, `
		CREATE TABLE moz_formhistory (id INTEGER PRIMARY KEY, fieldname TEXT, value TEXT, timesUsed INTEGER, firstUsed INTEGER, lastUsed INTEGER);
	`)
	first := geckoUS(refTime)
	last := geckoUS(refTime.Add(24 * time.Hour))
	mustExec(t, db, `INSERT INTO moz_formhistory (fieldname, value, timesUsed, firstUsed, lastUsed) VALUES ('email', 'user@example.com', 7, ?, ?)`, first, last)
	mustExec(t, db, `INSERT INTO moz_formhistory (fieldname, value, timesUsed, firstUsed, lastUsed) VALUES ('searchbar', 'golang', 1, ?, ?)`, first, first)

	events, err := geckoFormHistory(db, "firefox", newGuard(0))
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "Form First Used", events[0].TimestampDesc)
	assert.Equal(t, "Form Last Used", events[1].TimestampDesc)
	times, _ := events[0].Get("times_used")
	assert.Equal(t, int64(7), times)
}

func TestGeckoInputHistoryAndKeywords(t *testing.T) {
	db := openFixture(t, geckoCoreDDL+`
		CREATE TABLE moz_inputhistory (place_id INTEGER, input TEXT, use_count REAL);
		CREATE TABLE moz_keywords (id INTEGER PRIMARY KEY, keyword TEXT, place_id INTEGER);
	`)
	mustExec(t, db, `INSERT INTO moz_places (id, url, title, last_visit_date) VALUES (1, 'https://docs.example.com/', 'Docs', ?)`, geckoUS(refTime))
	mustExec(t, db, `INSERT INTO moz_inputhistory (place_id, input, use_count) VALUES (1, 'doc', 3.5)`)
	mustExec(t, db, `INSERT INTO moz_keywords (keyword, place_id) VALUES ('d', 1)`)

	inputs, err := geckoInputHistory(db, "firefox", newGuard(0))
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "Last Visit Time", inputs[0].TimestampDesc)
	assert.Equal(t, geckoUS(refTime), inputs[0].Timestamp)
	input, _ := inputs[0].Get("input")
	assert.Equal(t, "doc", input)

	keywords, err := geckoKeywords(db, "firefox", newGuard(0))
	require.NoError(t, err)
	require.Len(t, keywords, 1)
	kw, _ := keywords[0].Get("keyword")
	assert.Equal(t, "d", kw)
}

func TestGeckoOrigins(t *testing.T) {
	db := openFixture(t, geckoCoreDDL+`
		CREATE TABLE moz_origins (id INTEGER PRIMARY KEY, prefix TEXT, host TEXT, frecency INTEGER);
	`)
	mustExec(t, db, `INSERT INTO moz_origins (id, prefix, host, frecency) VALUES (1, 'https://', 'example.com', 250)`)
	mustExec(t, db, `INSERT INTO moz_places (id, url, origin_id, last_visit_date) VALUES (1, 'https://example.com/a', 1, ?)`, geckoUS(refTime))
	mustExec(t, db, `INSERT INTO moz_places (id, url, origin_id, last_visit_date) VALUES (2, 'https://example.com/b', 1, ?)`, geckoUS(refTime.Add(time.Hour)))

	events, err := geckoOrigins(db, "firefox", newGuard(0))
	require.NoError(t, err)
	require.Len(t, events, 1, "origins are grouped")

	e := events[0]
	assert.Equal(t, geckoUS(refTime.Add(time.Hour)), e.Timestamp, "uses the most recent visit")
	url, _ := e.Get("url")
	assert.Equal(t, "https://example.com", url)
	frecency, _ := e.Get("frecency")
	assert.Equal(t, int64(250), frecency)
}

func TestGeckoInteractions_MillisecondEpoch(t *testing.T) {
	db := openFixture(t, geckoCoreDDL+`
		CREATE TABLE moz_places_metadata (
			id INTEGER PRIMARY KEY, place_id INTEGER,
			created_at INTEGER, updated_at INTEGER,
			total_view_time INTEGER, typing_time INTEGER,
			key_presses INTEGER, scrolling_distance INTEGER
		);
	`)
	mustExec(t, db, `INSERT INTO moz_places (id, url, title) VALUES (1, 'https://example.com/', 'Example')`)
	createdMS := refTime.Unix() * 1000
	mustExec(t, db, `INSERT INTO moz_places_metadata (place_id, created_at, updated_at, total_view_time, typing_time, key_presses, scrolling_distance) VALUES (1, ?, ?, 42000, 1200, 77, 900)`, createdMS, createdMS)

	events, err := geckoInteractions(db, "firefox", newGuard(0))
	require.NoError(t, err)
	require.Len(t, events, 1, "equal updated_at emits no second event")
	assert.Equal(t, geckoUS(refTime), events[0].Timestamp)
	view, _ := events[0].Get("total_view_time_ms")
	assert.Equal(t, int64(42000), view)
}
