package extract

import (
	"database/sql"
	"fmt"

	"github.com/runnerr0/retrace/internal/timeconv"
)

var webkitExtractors = []Extractor{
	{
		Category: "visits",
		Requires: []requirement{{Table: "history_visits"}, {Table: "history_items"}},
		run:      webkitVisits,
	},
	{
		Category: "bookmarks",
		Requires: []requirement{{Table: "bookmarks", Column: "url"}},
		run:      webkitBookmarks,
	},
	{
		Category: "downloads",
		Requires: []requirement{{Table: "downloads", Column: "started_at"}},
		run:      webkitDownloads,
	},
	{
		Category: "reading_list",
		Requires: []requirement{{Table: "reading_list", Column: "date_added"}},
		run:      webkitReadingList,
	},
	{
		Category: "top_sites",
		Requires: []requirement{
			{Table: "history_items", Column: "visit_count_score"},
			{Table: "history_visits"},
		},
		run: webkitTopSites,
	},
}

// webkitVisits extracts page visits with redirect-source and
// redirect-destination chain resolution. The page title lives on the
// visit row, not the item.
func webkitVisits(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	rows, err := db.Query(`
		SELECT v.visit_time, i.url, v.title, v.load_successful, v.origin,
		       i.visit_count, rsi.url, rdi.url
		FROM history_visits v
		JOIN history_items i ON v.history_item = i.id
		LEFT JOIN history_visits rs ON v.redirect_source = rs.id
		LEFT JOIN history_items rsi ON rs.history_item = rsi.id
		LEFT JOIN history_visits rd ON v.redirect_destination = rd.id
		LEFT JOIN history_items rdi ON rd.history_item = rdi.id
		ORDER BY v.visit_time
	`)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var visitTime sql.NullFloat64
		var url, title, redirectSourceURL, redirectDestURL sql.NullString
		var loadSuccessful, origin, visitCount sql.NullInt64

		if err := rows.Scan(&visitTime, &url, &title, &loadSuccessful, &origin,
			&visitCount, &redirectSourceURL, &redirectDestURL); err != nil {
			return events, fmt.Errorf("scan visit: %w", err)
		}

		ts, iso, err := timeconv.WebKit(visitTime.Float64)
		if !g.pass("visits", err) {
			if g.aborted {
				break
			}
			continue
		}

		pageTitle := titleOr(title)
		e := Event{
			Timestamp:     ts,
			Datetime:      iso,
			TimestampDesc: "Visit Time",
			Message:       "Visited: " + pageTitle,
			DataType:      tag + ":history:visit",
		}
		e.SetString("url", urlOr(url))
		e.SetString("title", pageTitle)
		if loadSuccessful.Valid {
			e.SetBool("load_successful", loadSuccessful.Int64 != 0)
		}
		if origin.Valid {
			// 0 is a local visit, non-zero a synced one.
			e.SetBool("synced", origin.Int64 != 0)
		}
		if visitCount.Valid {
			e.SetInt("total_visits", visitCount.Int64)
		}
		if redirectSourceURL.Valid {
			e.SetString("redirect_source_url", redirectSourceURL.String)
		}
		if redirectDestURL.Valid {
			e.SetString("redirect_destination_url", redirectDestURL.String)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// webkitBookmarks extracts URL bookmarks. Most Safari releases keep
// bookmarks in a plist, so this usually skips; databases that do carry
// the table have no timestamps, and those events sort first with the
// 0 sentinel.
func webkitBookmarks(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	rows, err := db.Query(`
		SELECT title, url FROM bookmarks WHERE url IS NOT NULL AND url != ''
	`)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var title, url sql.NullString

		if err := rows.Scan(&title, &url); err != nil {
			return events, fmt.Errorf("scan bookmark: %w", err)
		}

		display := titleOr(title)
		e := Event{
			Timestamp:     0,
			Datetime:      "",
			TimestampDesc: "Bookmark Added",
			Message:       "Bookmarked: " + display,
			DataType:      tag + ":bookmark:added",
		}
		e.SetString("url", urlOr(url))
		e.SetString("title", display)
		events = append(events, e)
	}
	return events, rows.Err()
}

// webkitDownloads emits start/complete pairs per download row.
func webkitDownloads(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	rows, err := db.Query(`
		SELECT url, target_path, started_at, finished_at, total_bytes, received_bytes
		FROM downloads
		ORDER BY started_at
	`)
	if err != nil {
		return nil, fmt.Errorf("query downloads: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var url, targetPath sql.NullString
		var startedAt, finishedAt sql.NullFloat64
		var totalBytes, receivedBytes sql.NullInt64

		if err := rows.Scan(&url, &targetPath, &startedAt, &finishedAt,
			&totalBytes, &receivedBytes); err != nil {
			return events, fmt.Errorf("scan download: %w", err)
		}

		startTS, startISO, err := timeconv.WebKit(startedAt.Float64)
		if !g.pass("downloads", err) {
			if g.aborted {
				break
			}
			continue
		}

		decorate := func(e *Event) {
			e.SetString("url", urlOr(url))
			if targetPath.Valid {
				e.SetString("target_path", targetPath.String)
			}
			if totalBytes.Valid {
				e.SetInt("total_bytes", totalBytes.Int64)
			}
			if receivedBytes.Valid {
				e.SetInt("received_bytes", receivedBytes.Int64)
			}
		}

		start := Event{
			Timestamp:     startTS,
			Datetime:      startISO,
			TimestampDesc: "Download Started",
			Message:       "Download started: " + urlOr(url),
			DataType:      tag + ":download:start",
		}
		decorate(&start)
		events = append(events, start)

		if finishedAt.Float64 == 0 || finishedAt.Float64 == startedAt.Float64 {
			continue
		}
		endTS, endISO, err := timeconv.WebKit(finishedAt.Float64)
		if !g.pass("downloads", err) {
			if g.aborted {
				break
			}
			continue
		}
		complete := Event{
			Timestamp:     endTS,
			Datetime:      endISO,
			TimestampDesc: "Download Completed",
			Message:       "Download completed: " + urlOr(url),
			DataType:      tag + ":download:complete",
		}
		decorate(&complete)
		events = append(events, complete)
	}
	return events, rows.Err()
}

// webkitReadingList emits added/viewed pairs for reading-list items.
func webkitReadingList(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	rows, err := db.Query(`
		SELECT url, title, date_added, date_last_viewed
		FROM reading_list
		ORDER BY date_added
	`)
	if err != nil {
		return nil, fmt.Errorf("query reading list: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var url, title sql.NullString
		var dateAdded, dateLastViewed sql.NullFloat64

		if err := rows.Scan(&url, &title, &dateAdded, &dateLastViewed); err != nil {
			return events, fmt.Errorf("scan reading list: %w", err)
		}

		addedTS, addedISO, err := timeconv.WebKit(dateAdded.Float64)
		if !g.pass("reading_list", err) {
			if g.aborted {
				break
			}
			continue
		}

		display := titleOr(title)
		added := Event{
			Timestamp:     addedTS,
			Datetime:      addedISO,
			TimestampDesc: "Reading List Added",
			Message:       "Reading list: " + display,
			DataType:      tag + ":reading_list:added",
		}
		added.SetString("url", urlOr(url))
		added.SetString("title", display)
		events = append(events, added)

		if dateLastViewed.Float64 == 0 || dateLastViewed.Float64 == dateAdded.Float64 {
			continue
		}
		viewedTS, viewedISO, err := timeconv.WebKit(dateLastViewed.Float64)
		if !g.pass("reading_list", err) {
			if g.aborted {
				break
			}
			continue
		}
		viewed := Event{
			Timestamp:     viewedTS,
			Datetime:      viewedISO,
			TimestampDesc: "Reading List Viewed",
			Message:       "Reading list viewed: " + display,
			DataType:      tag + ":reading_list:viewed",
		}
		viewed.SetString("url", urlOr(url))
		viewed.SetString("title", display)
		events = append(events, viewed)
	}
	return events, rows.Err()
}

// webkitTopSites ranks items by visit_count_score and emits the top
// entries with their most recent visit time.
func webkitTopSites(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	rows, err := db.Query(`
		SELECT i.url, i.visit_count, i.visit_count_score, MAX(v.visit_time)
		FROM history_items i
		JOIN history_visits v ON v.history_item = i.id
		WHERE i.visit_count_score > 0
		GROUP BY i.id
		ORDER BY i.visit_count_score DESC
		LIMIT 25
	`)
	if err != nil {
		return nil, fmt.Errorf("query top sites: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var url sql.NullString
		var visitCount, score sql.NullInt64
		var lastVisit sql.NullFloat64

		if err := rows.Scan(&url, &visitCount, &score, &lastVisit); err != nil {
			return events, fmt.Errorf("scan top site: %w", err)
		}

		ts, iso, err := timeconv.WebKit(lastVisit.Float64)
		if !g.pass("top_sites", err) {
			if g.aborted {
				break
			}
			continue
		}

		e := Event{
			Timestamp:     ts,
			Datetime:      iso,
			TimestampDesc: "Last Visit Time",
			Message:       "Top site: " + urlOr(url),
			DataType:      tag + ":history:top_site",
		}
		e.SetString("url", urlOr(url))
		if visitCount.Valid {
			e.SetInt("total_visits", visitCount.Int64)
		}
		if score.Valid {
			e.SetInt("visit_count_score", score.Int64)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
