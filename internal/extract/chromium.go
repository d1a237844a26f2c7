package extract

import (
	"database/sql"
	"fmt"

	"github.com/runnerr0/retrace/internal/schema"
	"github.com/runnerr0/retrace/internal/timeconv"
)

// chromiumTransitions maps the core transition type held in the lower
// 8 bits of visits.transition.
var chromiumTransitions = map[int64]string{
	0:  "Link",
	1:  "Typed",
	2:  "Auto_Bookmark",
	3:  "Auto_Subframe",
	4:  "Manual_Subframe",
	5:  "Generated",
	6:  "Start_Page",
	7:  "Form_Submit",
	8:  "Reload",
	9:  "Keyword",
	10: "Keyword_Generated",
}

func chromiumTransition(raw int64) string {
	core := raw & 0xFF
	if name, ok := chromiumTransitions[core]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", core)
}

// chromiumDownloadStates maps downloads.state codes.
var chromiumDownloadStates = map[int64]string{
	0: "In Progress",
	1: "Complete",
	2: "Cancelled",
	3: "Interrupted",
}

func chromiumDownloadState(code int64) string {
	if name, ok := chromiumDownloadStates[code]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", code)
}

var chromiumExtractors = []Extractor{
	{
		Category: "visits",
		Requires: []requirement{{Table: "visits"}, {Table: "urls"}},
		run:      chromiumVisits,
	},
	{
		Category: "downloads",
		Requires: []requirement{{Table: "downloads", Column: "target_path"}},
		run:      chromiumDownloads,
	},
	{
		Category: "searches",
		Requires: []requirement{{Table: "keyword_search_terms"}, {Table: "urls"}},
		run:      chromiumSearches,
	},
	{
		Category: "autofill",
		Requires: []requirement{{Table: "autofill", Column: "date_created"}},
		run:      chromiumAutofill,
	},
	{
		Category: "favicons",
		Requires: []requirement{{Table: "favicons"}, {Table: "favicon_bitmaps"}},
		run:      chromiumFavicons,
	},
	{
		Category: "media_playback",
		Requires: []requirement{{Table: "playback"}},
		run:      chromiumMediaPlayback,
	},
	{
		Category: "segments",
		Requires: []requirement{{Table: "segments"}, {Table: "segment_usage"}},
		run:      chromiumSegments,
	},
}

// chromiumVisits extracts page visits with from-visit and opener-visit
// chain resolution.
func chromiumVisits(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	// opener_visit arrived long after from_visit; probe before use.
	hasOpener := schema.ColumnExists(db, "visits", "opener_visit")

	openerJoin := ""
	openerCol := "NULL"
	if hasOpener {
		openerJoin = `
		LEFT JOIN visits ov ON v.opener_visit = ov.id
		LEFT JOIN urls ou ON ov.url = ou.id`
		openerCol = "ou.url"
	}

	query := fmt.Sprintf(`
		SELECT v.visit_time, u.url, u.title, v.transition, v.visit_duration,
		       u.visit_count, u.typed_count, fu.url, %s
		FROM visits v
		JOIN urls u ON v.url = u.id
		LEFT JOIN visits fv ON v.from_visit = fv.id
		LEFT JOIN urls fu ON fv.url = fu.id%s
		ORDER BY v.visit_time
	`, openerCol, openerJoin)

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var visitTime, transition, duration, visitCount, typedCount sql.NullInt64
		var url, title, fromURL, openerURL sql.NullString

		if err := rows.Scan(&visitTime, &url, &title, &transition, &duration,
			&visitCount, &typedCount, &fromURL, &openerURL); err != nil {
			return events, fmt.Errorf("scan visit: %w", err)
		}

		ts, iso, err := timeconv.Chromium(visitTime.Int64)
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
		e.SetString("visit_type", chromiumTransition(transition.Int64))
		if duration.Valid {
			e.SetInt("visit_duration_us", duration.Int64)
		}
		if visitCount.Valid {
			e.SetInt("total_visits", visitCount.Int64)
		}
		if typedCount.Valid {
			e.SetInt("typed_count", typedCount.Int64)
		}
		if fromURL.Valid {
			e.SetString("from_url", fromURL.String)
		}
		if openerURL.Valid {
			e.SetString("opener_url", openerURL.String)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// chromiumDownloads emits up to three events per download row: start,
// complete, and last-access, the latter two only when their timestamps
// are present and differ from the start time.
func chromiumDownloads(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	hasLastAccess := schema.ColumnExists(db, "downloads", "last_access_time")

	accessCol := "NULL"
	if hasLastAccess {
		accessCol = "d.last_access_time"
	}

	query := fmt.Sprintf(`
		SELECT d.target_path, d.tab_url, d.referrer, d.start_time, d.end_time, %s,
		       d.received_bytes, d.total_bytes, d.state, d.danger_type, d.mime_type, c.url
		FROM downloads d
		LEFT JOIN downloads_url_chains c ON c.id = d.id AND c.chain_index = 0
		ORDER BY d.start_time
	`, accessCol)

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query downloads: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var targetPath, tabURL, referrer, mimeType, chainURL sql.NullString
		var startTime, endTime, accessTime, receivedBytes, totalBytes, state, dangerType sql.NullInt64

		if err := rows.Scan(&targetPath, &tabURL, &referrer, &startTime, &endTime,
			&accessTime, &receivedBytes, &totalBytes, &state, &dangerType,
			&mimeType, &chainURL); err != nil {
			return events, fmt.Errorf("scan download: %w", err)
		}

		startTS, startISO, err := timeconv.Chromium(startTime.Int64)
		if !g.pass("downloads", err) {
			if g.aborted {
				break
			}
			continue
		}

		// Source URL: first link of the redirect chain, then tab URL.
		sourceURL := chainURL
		if !sourceURL.Valid || sourceURL.String == "" {
			sourceURL = tabURL
		}

		decorate := func(e *Event) {
			e.SetString("url", urlOr(sourceURL))
			if targetPath.Valid {
				e.SetString("target_path", targetPath.String)
			}
			if referrer.Valid && referrer.String != "" {
				e.SetString("referrer", referrer.String)
			}
			if receivedBytes.Valid {
				e.SetInt("received_bytes", receivedBytes.Int64)
			}
			if totalBytes.Valid {
				e.SetInt("total_bytes", totalBytes.Int64)
			}
			e.SetString("state", chromiumDownloadState(state.Int64))
			if dangerType.Valid {
				e.SetInt("danger_type", dangerType.Int64)
			}
			if mimeType.Valid && mimeType.String != "" {
				e.SetString("mime_type", mimeType.String)
			}
		}

		start := Event{
			Timestamp:     startTS,
			Datetime:      startISO,
			TimestampDesc: "Download Started",
			Message:       "Download started: " + targetPath.String,
			DataType:      tag + ":download:start",
		}
		decorate(&start)
		events = append(events, start)

		if endTime.Int64 != 0 && endTime.Int64 != startTime.Int64 {
			endTS, endISO, err := timeconv.Chromium(endTime.Int64)
			if g.pass("downloads", err) {
				complete := Event{
					Timestamp:     endTS,
					Datetime:      endISO,
					TimestampDesc: "Download Completed",
					Message:       "Download completed: " + targetPath.String,
					DataType:      tag + ":download:complete",
				}
				decorate(&complete)
				events = append(events, complete)
			} else if g.aborted {
				break
			}
		}

		if accessTime.Int64 != 0 && accessTime.Int64 != startTime.Int64 {
			accTS, accISO, err := timeconv.Chromium(accessTime.Int64)
			if g.pass("downloads", err) {
				accessed := Event{
					Timestamp:     accTS,
					Datetime:      accISO,
					TimestampDesc: "Download Last Accessed",
					Message:       "Download accessed: " + targetPath.String,
					DataType:      tag + ":download:access",
				}
				decorate(&accessed)
				events = append(events, accessed)
			} else if g.aborted {
				break
			}
		}
	}
	return events, rows.Err()
}

// chromiumSearches extracts omnibox keyword search terms.
func chromiumSearches(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	rows, err := db.Query(`
		SELECT k.term, u.url, u.title, u.last_visit_time
		FROM keyword_search_terms k
		JOIN urls u ON k.url_id = u.id
		ORDER BY u.last_visit_time
	`)
	if err != nil {
		return nil, fmt.Errorf("query searches: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var term, url, title sql.NullString
		var lastVisit sql.NullInt64

		if err := rows.Scan(&term, &url, &title, &lastVisit); err != nil {
			return events, fmt.Errorf("scan search: %w", err)
		}

		ts, iso, err := timeconv.Chromium(lastVisit.Int64)
		if !g.pass("searches", err) {
			if g.aborted {
				break
			}
			continue
		}

		e := Event{
			Timestamp:     ts,
			Datetime:      iso,
			TimestampDesc: "Search Time",
			Message:       "Searched for: " + term.String,
			DataType:      tag + ":search:term",
		}
		e.SetString("url", urlOr(url))
		e.SetString("title", titleOr(title))
		e.SetString("search_term", term.String)
		events = append(events, e)
	}
	return events, rows.Err()
}

// chromiumAutofill extracts saved form field values from a Web Data
// database. On a History database the guard skips this category.
func chromiumAutofill(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	rows, err := db.Query(`
		SELECT name, value, count, date_created, date_last_used
		FROM autofill
		ORDER BY date_created
	`)
	if err != nil {
		return nil, fmt.Errorf("query autofill: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var name, value sql.NullString
		var count, dateCreated, dateLastUsed sql.NullInt64

		if err := rows.Scan(&name, &value, &count, &dateCreated, &dateLastUsed); err != nil {
			return events, fmt.Errorf("scan autofill: %w", err)
		}

		// autofill stores time_t seconds, not the 1601-epoch
		// microseconds used elsewhere in Chromium databases.
		createdTS, createdISO, err := timeconv.Gecko(dateCreated.Int64 * 1_000_000)
		if !g.pass("autofill", err) {
			if g.aborted {
				break
			}
			continue
		}

		created := Event{
			Timestamp:     createdTS,
			Datetime:      createdISO,
			TimestampDesc: "Autofill First Used",
			Message:       "Autofill field: " + name.String,
			DataType:      tag + ":autofill:created",
		}
		created.SetString("field_name", name.String)
		if value.Valid {
			created.SetString("field_value", value.String)
		}
		if count.Valid {
			created.SetInt("times_used", count.Int64)
		}
		events = append(events, created)

		if dateLastUsed.Int64 == 0 || dateLastUsed.Int64 == dateCreated.Int64 {
			continue
		}
		lastTS, lastISO, err := timeconv.Gecko(dateLastUsed.Int64 * 1_000_000)
		if !g.pass("autofill", err) {
			if g.aborted {
				break
			}
			continue
		}
		last := Event{
			Timestamp:     lastTS,
			Datetime:      lastISO,
			TimestampDesc: "Autofill Last Used",
			Message:       "Autofill field: " + name.String,
			DataType:      tag + ":autofill:last_used",
		}
		last.SetString("field_name", name.String)
		if value.Valid {
			last.SetString("field_value", value.String)
		}
		if count.Valid {
			last.SetInt("times_used", count.Int64)
		}
		events = append(events, last)
	}
	return events, rows.Err()
}

// chromiumFavicons extracts favicon bitmap update times from a
// Favicons database.
func chromiumFavicons(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	rows, err := db.Query(`
		SELECT b.last_updated, f.url, b.width, b.height
		FROM favicon_bitmaps b
		JOIN favicons f ON b.icon_id = f.id
		ORDER BY b.last_updated
	`)
	if err != nil {
		return nil, fmt.Errorf("query favicons: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var lastUpdated, width, height sql.NullInt64
		var iconURL sql.NullString

		if err := rows.Scan(&lastUpdated, &iconURL, &width, &height); err != nil {
			return events, fmt.Errorf("scan favicon: %w", err)
		}

		ts, iso, err := timeconv.Chromium(lastUpdated.Int64)
		if !g.pass("favicons", err) {
			if g.aborted {
				break
			}
			continue
		}

		e := Event{
			Timestamp:     ts,
			Datetime:      iso,
			TimestampDesc: "Favicon Updated",
			Message:       "Favicon updated: " + iconURL.String,
			DataType:      tag + ":favicon:update",
		}
		e.SetString("url", urlOr(iconURL))
		if width.Valid {
			e.SetInt("width", width.Int64)
		}
		if height.Valid {
			e.SetInt("height", height.Int64)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// chromiumMediaPlayback extracts watch-time records from a Media
// History database.
func chromiumMediaPlayback(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	rows, err := db.Query(`
		SELECT url, watch_time_s, has_video, has_audio, last_updated_time_s
		FROM playback
		ORDER BY last_updated_time_s
	`)
	if err != nil {
		return nil, fmt.Errorf("query media playback: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var url sql.NullString
		var watchTime sql.NullFloat64
		var hasVideo, hasAudio, lastUpdated sql.NullInt64

		if err := rows.Scan(&url, &watchTime, &hasVideo, &hasAudio, &lastUpdated); err != nil {
			return events, fmt.Errorf("scan playback: %w", err)
		}

		// Media history keeps time_t seconds.
		ts, iso, err := timeconv.Gecko(lastUpdated.Int64 * 1_000_000)
		if !g.pass("media_playback", err) {
			if g.aborted {
				break
			}
			continue
		}

		e := Event{
			Timestamp:     ts,
			Datetime:      iso,
			TimestampDesc: "Playback Updated",
			Message:       "Media playback: " + urlOr(url),
			DataType:      tag + ":media:playback",
		}
		e.SetString("url", urlOr(url))
		if watchTime.Valid {
			e.SetFloat("watch_time_s", watchTime.Float64)
		}
		if hasVideo.Valid {
			e.SetBool("has_video", hasVideo.Int64 != 0)
		}
		if hasAudio.Valid {
			e.SetBool("has_audio", hasAudio.Int64 != 0)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// chromiumSegments extracts per-domain daily engagement counters.
func chromiumSegments(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	rows, err := db.Query(`
		SELECT s.name, su.time_slot, su.visit_count
		FROM segment_usage su
		JOIN segments s ON su.segment_id = s.id
		ORDER BY su.time_slot
	`)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var name sql.NullString
		var timeSlot, visitCount sql.NullInt64

		if err := rows.Scan(&name, &timeSlot, &visitCount); err != nil {
			return events, fmt.Errorf("scan segment: %w", err)
		}

		ts, iso, err := timeconv.Chromium(timeSlot.Int64)
		if !g.pass("segments", err) {
			if g.aborted {
				break
			}
			continue
		}

		e := Event{
			Timestamp:     ts,
			Datetime:      iso,
			TimestampDesc: "Day Visited",
			Message:       "Domain engagement: " + name.String,
			DataType:      tag + ":engagement:segment",
		}
		e.SetString("url", urlOr(name))
		if visitCount.Valid {
			e.SetInt("total_visits", visitCount.Int64)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
