package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebkitVisits(t *testing.T) {
	db := openFixture(t, webkitCoreDDL)
	mustExec(t, db, `INSERT INTO history_items (id, url, visit_count) VALUES (1, 'https://example.com/', 3)`)
	mustExec(t, db, `INSERT INTO history_items (id, url, visit_count) VALUES (2, 'https://next.example.com/', 1)`)
	mustExec(t, db, `INSERT INTO history_visits (id, history_item, visit_time, title, load_successful, origin, redirect_source, redirect_destination) VALUES (1, 1, ?, 'Example', 1, 0, NULL, 2)`, webkitSec(refTime))
	mustExec(t, db, `INSERT INTO history_visits (id, history_item, visit_time, title, load_successful, origin, redirect_source, redirect_destination) VALUES (2, 2, ?, 'Next', 1, 1, 1, NULL)`, webkitSec(refTime.Add(time.Second)))

	events, err := webkitVisits(db, "safari", newGuard(0))
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, geckoUS(refTime), first.Timestamp, "2001 epoch shifted to Unix")
	assert.Equal(t, "2023-04-10T09:30:00+00:00", first.Datetime)
	assert.Equal(t, "Visited: Example", first.Message, "title comes from the visit row")
	assert.Equal(t, "safari:history:visit", first.DataType)

	synced, _ := first.Get("synced")
	assert.Equal(t, false, synced)
	dest, ok := first.Get("redirect_destination_url")
	require.True(t, ok)
	assert.Equal(t, "https://next.example.com/", dest)

	second := events[1]
	syncedSecond, _ := second.Get("synced")
	assert.Equal(t, true, syncedSecond)
	src, ok := second.Get("redirect_source_url")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/", src)
}

func TestWebkitVisits_FractionalSeconds(t *testing.T) {
	db := openFixture(t, webkitCoreDDL)
	mustExec(t, db, `INSERT INTO history_items (id, url) VALUES (1, 'https://example.com/')`)
	mustExec(t, db, `INSERT INTO history_visits (history_item, visit_time) VALUES (1, ?)`, webkitSec(refTime)+0.5)

	events, err := webkitVisits(db, "safari", newGuard(0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, geckoUS(refTime)+500_000, events[0].Timestamp)
}

func TestWebkitBookmarks_ZeroTimestamp(t *testing.T) {
	db := openFixture(t, `
		CREATE TABLE bookmarks (id INTEGER PRIMARY KEY, title TEXT, url TEXT);
	`)
	mustExec(t, db, `INSERT INTO bookmarks (title, url) VALUES ('Example', 'https://example.com/')`)
	mustExec(t, db, `INSERT INTO bookmarks (title, url) VALUES ('Folder', NULL)`)

	events, err := webkitBookmarks(db, "safari", newGuard(0))
	require.NoError(t, err)
	require.Len(t, events, 1, "rows without URLs are containers, not bookmarks")

	e := events[0]
	assert.Equal(t, int64(0), e.Timestamp)
	assert.Equal(t, "", e.Datetime)
	assert.Equal(t, "Bookmark Added", e.TimestampDesc)
	assert.Equal(t, "safari:bookmark:added", e.DataType)
}

func TestWebkitDownloads_Pair(t *testing.T) {
	db := openFixture(t, `
		CREATE TABLE downloads (id INTEGER PRIMARY KEY, url TEXT, target_path TEXT, started_at REAL, finished_at REAL, total_bytes INTEGER, received_bytes INTEGER);
	`)
	started := webkitSec(refTime)
	finished := webkitSec(refTime.Add(45 * time.Second))
	mustExec(t, db, `INSERT INTO downloads (url, target_path, started_at, finished_at, total_bytes, received_bytes) VALUES ('https://example.com/a.dmg', '/Users/u/Downloads/a.dmg', ?, ?, 2048, 2048)`, started, finished)
	mustExec(t, db, `INSERT INTO downloads (url, target_path, started_at, finished_at) VALUES ('https://example.com/b.dmg', '/Users/u/Downloads/b.dmg', ?, 0)`, started)

	events, err := webkitDownloads(db, "safari", newGuard(0))
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "Download Started", events[0].TimestampDesc)
	assert.Equal(t, "safari:download:start", events[0].DataType)
	assert.Equal(t, "Download Completed", events[1].TimestampDesc)
	assert.Equal(t, geckoUS(refTime.Add(45*time.Second)), events[1].Timestamp)
	assert.Equal(t, "Download Started", events[2].TimestampDesc, "unfinished download emits start only")
}

func TestWebkitReadingList_Pair(t *testing.T) {
	db := openFixture(t, `
		CREATE TABLE reading_list (id INTEGER PRIMARY KEY, url TEXT, title TEXT, date_added REAL, date_last_viewed REAL);
	`)
	added := webkitSec(refTime)
	viewed := webkitSec(refTime.Add(3 * time.Hour))
	mustExec(t, db, `INSERT INTO reading_list (url, title, date_added, date_last_viewed) VALUES ('https://example.com/article', 'Long Read', ?, ?)`, added, viewed)
	mustExec(t, db, `INSERT INTO reading_list (url, title, date_added, date_last_viewed) VALUES ('https://example.com/unread', 'Unread', ?, 0)`, added)

	events, err := webkitReadingList(db, "safari", newGuard(0))
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "Reading List Added", events[0].TimestampDesc)
	assert.Equal(t, "safari:reading_list:added", events[0].DataType)
	assert.Equal(t, "Reading List Viewed", events[1].TimestampDesc)
	assert.Equal(t, "Reading List Added", events[2].TimestampDesc)
}

func TestWebkitTopSites(t *testing.T) {
	db := openFixture(t, webkitCoreDDL)
	mustExec(t, db, `INSERT INTO history_items (id, url, visit_count, visit_count_score) VALUES (1, 'https://low.example.com/', 2, 10)`)
	mustExec(t, db, `INSERT INTO history_items (id, url, visit_count, visit_count_score) VALUES (2, 'https://high.example.com/', 9, 80)`)
	mustExec(t, db, `INSERT INTO history_items (id, url, visit_count, visit_count_score) VALUES (3, 'https://unscored.example.com/', 1, 0)`)
	mustExec(t, db, `INSERT INTO history_visits (history_item, visit_time) VALUES (1, ?)`, webkitSec(refTime))
	mustExec(t, db, `INSERT INTO history_visits (history_item, visit_time) VALUES (2, ?)`, webkitSec(refTime))
	mustExec(t, db, `INSERT INTO history_visits (history_item, visit_time) VALUES (2, ?)`, webkitSec(refTime.Add(time.Hour)))
	mustExec(t, db, `INSERT INTO history_visits (history_item, visit_time) VALUES (3, ?)`, webkitSec(refTime))

	events, err := webkitTopSites(db, "safari", newGuard(0))
	require.NoError(t, err)
	require.Len(t, events, 2, "zero-score items are excluded")

	first := events[0]
	assert.Equal(t, "safari:history:top_site", first.DataType)
	url, _ := first.Get("url")
	assert.Equal(t, "https://high.example.com/", url, "ranked by score")
	assert.Equal(t, geckoUS(refTime.Add(time.Hour)), first.Timestamp, "uses the most recent visit")
	score, _ := first.Get("visit_count_score")
	assert.Equal(t, int64(80), score)
}
