package extract

import (
	"database/sql"
	"fmt"

	"github.com/runnerr0/retrace/internal/schema"
	"github.com/runnerr0/retrace/internal/timeconv"
)

// geckoVisitTypes maps moz_historyvisits.visit_type codes.
var geckoVisitTypes = map[int64]string{
	1: "Link",
	2: "Typed",
	3: "Bookmark",
	4: "Embed",
	5: "Redirect_Permanent",
	6: "Redirect_Temporary",
	7: "Download",
	8: "Framed_Link",
	9: "Reload",
}

func geckoVisitType(code int64) string {
	if name, ok := geckoVisitTypes[code]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", code)
}

var geckoExtractors = []Extractor{
	{
		Category: "visits",
		Requires: []requirement{{Table: "moz_historyvisits"}, {Table: "moz_places"}},
		run:      geckoVisits,
	},
	{
		Category: "bookmarks",
		Requires: []requirement{{Table: "moz_bookmarks"}, {Table: "moz_places"}},
		run:      geckoBookmarks,
	},
	{
		Category: "downloads",
		Requires: []requirement{
			{Table: "moz_annos"}, {Table: "moz_anno_attributes"}, {Table: "moz_places"},
		},
		run: geckoDownloads,
	},
	{
		Category: "form_history",
		Requires: []requirement{{Table: "moz_formhistory"}},
		run:      geckoFormHistory,
	},
	{
		Category: "annotations",
		Requires: []requirement{
			{Table: "moz_annos"}, {Table: "moz_anno_attributes"}, {Table: "moz_places"},
		},
		run: geckoAnnotations,
	},
	{
		Category: "interactions",
		Requires: []requirement{{Table: "moz_places_metadata"}, {Table: "moz_places"}},
		run:      geckoInteractions,
	},
	{
		Category: "input_history",
		Requires: []requirement{{Table: "moz_inputhistory"}, {Table: "moz_places"}},
		run:      geckoInputHistory,
	},
	{
		Category: "keywords",
		Requires: []requirement{{Table: "moz_keywords"}, {Table: "moz_places"}},
		run:      geckoKeywords,
	},
	{
		Category: "origins",
		Requires: []requirement{
			{Table: "moz_origins"},
			{Table: "moz_places", Column: "origin_id"},
		},
		run: geckoOrigins,
	},
}

// geckoVisits extracts page visits with predecessor-visit resolution.
func geckoVisits(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	// moz_places.description only exists from Firefox 63 on.
	hasDescription := schema.ColumnExists(db, "moz_places", "description")

	descCol := "NULL"
	if hasDescription {
		descCol = "p.description"
	}

	query := fmt.Sprintf(`
		SELECT hv.visit_date, p.url, p.title, %s, hv.visit_type, fp.url
		FROM moz_historyvisits hv
		JOIN moz_places p ON hv.place_id = p.id
		LEFT JOIN moz_historyvisits fhv ON hv.from_visit = fhv.id
		LEFT JOIN moz_places fp ON fhv.place_id = fp.id
		ORDER BY hv.visit_date
	`, descCol)

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var visitDate, visitType sql.NullInt64
		var url, title, description, fromURL sql.NullString

		if err := rows.Scan(&visitDate, &url, &title, &description, &visitType, &fromURL); err != nil {
			return events, fmt.Errorf("scan visit: %w", err)
		}

		ts, iso, err := timeconv.Gecko(visitDate.Int64)
		if !g.pass("visits", err) {
			if g.aborted {
				break
			}
			continue
		}

		pageTitle := titleOr(title)
		message := "Visited: " + pageTitle
		if description.Valid && description.String != "" {
			message += " - " + description.String
		}

		e := Event{
			Timestamp:     ts,
			Datetime:      iso,
			TimestampDesc: "Visit Time",
			Message:       message,
			DataType:      tag + ":history:visit",
		}
		e.SetString("url", urlOr(url))
		e.SetString("title", pageTitle)
		e.SetString("visit_type", geckoVisitType(visitType.Int64))
		if fromURL.Valid {
			e.SetString("from_url", fromURL.String)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// geckoBookmarks emits an added event per URL bookmark and a modified
// event when lastModified differs from dateAdded.
func geckoBookmarks(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	rows, err := db.Query(`
		SELECT b.title, b.dateAdded, b.lastModified, p.url, p.title
		FROM moz_bookmarks b
		JOIN moz_places p ON b.fk = p.id
		WHERE b.type = 1
		ORDER BY b.dateAdded
	`)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var bookmarkTitle, url, pageTitle sql.NullString
		var dateAdded, lastModified sql.NullInt64

		if err := rows.Scan(&bookmarkTitle, &dateAdded, &lastModified, &url, &pageTitle); err != nil {
			return events, fmt.Errorf("scan bookmark: %w", err)
		}

		addedTS, addedISO, err := timeconv.Gecko(dateAdded.Int64)
		if !g.pass("bookmarks", err) {
			if g.aborted {
				break
			}
			continue
		}

		title := bookmarkTitle
		if !title.Valid || title.String == "" {
			title = pageTitle
		}
		display := titleOr(title)

		added := Event{
			Timestamp:     addedTS,
			Datetime:      addedISO,
			TimestampDesc: "Bookmark Added",
			Message:       "Bookmarked: " + display,
			DataType:      tag + ":bookmark:added",
		}
		added.SetString("url", urlOr(url))
		added.SetString("title", display)
		events = append(events, added)

		if lastModified.Int64 == 0 || lastModified.Int64 == dateAdded.Int64 {
			continue
		}
		modTS, modISO, err := timeconv.Gecko(lastModified.Int64)
		if !g.pass("bookmarks", err) {
			if g.aborted {
				break
			}
			continue
		}
		modified := Event{
			Timestamp:     modTS,
			Datetime:      modISO,
			TimestampDesc: "Bookmark Modified",
			Message:       "Bookmark modified: " + display,
			DataType:      tag + ":bookmark:modified",
		}
		modified.SetString("url", urlOr(url))
		modified.SetString("title", display)
		events = append(events, modified)
	}
	return events, rows.Err()
}

// geckoDownloads reads the destination-file annotations Firefox
// attaches to downloaded places.
func geckoDownloads(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	rows, err := db.Query(`
		SELECT a.dateAdded, a.content, p.url
		FROM moz_annos a
		JOIN moz_anno_attributes attr ON a.anno_attribute_id = attr.id
		JOIN moz_places p ON a.place_id = p.id
		WHERE attr.name = 'downloads/destinationFileURI'
		ORDER BY a.dateAdded
	`)
	if err != nil {
		return nil, fmt.Errorf("query downloads: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var dateAdded sql.NullInt64
		var target, url sql.NullString

		if err := rows.Scan(&dateAdded, &target, &url); err != nil {
			return events, fmt.Errorf("scan download: %w", err)
		}

		ts, iso, err := timeconv.Gecko(dateAdded.Int64)
		if !g.pass("downloads", err) {
			if g.aborted {
				break
			}
			continue
		}

		e := Event{
			Timestamp:     ts,
			Datetime:      iso,
			TimestampDesc: "Download Started",
			Message:       "Downloaded: " + urlOr(url),
			DataType:      tag + ":download:start",
		}
		e.SetString("url", urlOr(url))
		if target.Valid {
			e.SetString("target_path", target.String)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// geckoFormHistory emits first-used/last-used pairs for saved form
// field values. The table lives in formhistory.sqlite, so on a plain
// places.sqlite this category is skipped by its guard.
func geckoFormHistory(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	rows, err := db.Query(`
		SELECT fieldname, value, timesUsed, firstUsed, lastUsed
		FROM moz_formhistory
		ORDER BY firstUsed
	`)
	if err != nil {
		return nil, fmt.Errorf("query form history: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var fieldName, value sql.NullString
		var timesUsed, firstUsed, lastUsed sql.NullInt64

		if err := rows.Scan(&fieldName, &value, &timesUsed, &firstUsed, &lastUsed); err != nil {
			return events, fmt.Errorf("scan form history: %w", err)
		}

		firstTS, firstISO, err := timeconv.Gecko(firstUsed.Int64)
		if !g.pass("form_history", err) {
			if g.aborted {
				break
			}
			continue
		}

		name := fieldName.String
		first := Event{
			Timestamp:     firstTS,
			Datetime:      firstISO,
			TimestampDesc: "Form First Used",
			Message:       "Form field used: " + name,
			DataType:      tag + ":form:first_used",
		}
		first.SetString("field_name", name)
		if value.Valid {
			first.SetString("field_value", value.String)
		}
		if timesUsed.Valid {
			first.SetInt("times_used", timesUsed.Int64)
		}
		events = append(events, first)

		if lastUsed.Int64 == 0 || lastUsed.Int64 == firstUsed.Int64 {
			continue
		}
		lastTS, lastISO, err := timeconv.Gecko(lastUsed.Int64)
		if !g.pass("form_history", err) {
			if g.aborted {
				break
			}
			continue
		}
		last := Event{
			Timestamp:     lastTS,
			Datetime:      lastISO,
			TimestampDesc: "Form Last Used",
			Message:       "Form field used: " + name,
			DataType:      tag + ":form:last_used",
		}
		last.SetString("field_name", name)
		if value.Valid {
			last.SetString("field_value", value.String)
		}
		if timesUsed.Valid {
			last.SetInt("times_used", timesUsed.Int64)
		}
		events = append(events, last)
	}
	return events, rows.Err()
}

// geckoAnnotations extracts page annotations other than the download
// bookkeeping handled by geckoDownloads.
func geckoAnnotations(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	rows, err := db.Query(`
		SELECT a.dateAdded, attr.name, a.content, p.url
		FROM moz_annos a
		JOIN moz_anno_attributes attr ON a.anno_attribute_id = attr.id
		JOIN moz_places p ON a.place_id = p.id
		WHERE attr.name NOT LIKE 'downloads/%'
		ORDER BY a.dateAdded
	`)
	if err != nil {
		return nil, fmt.Errorf("query annotations: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var dateAdded sql.NullInt64
		var name, content, url sql.NullString

		if err := rows.Scan(&dateAdded, &name, &content, &url); err != nil {
			return events, fmt.Errorf("scan annotation: %w", err)
		}

		ts, iso, err := timeconv.Gecko(dateAdded.Int64)
		if !g.pass("annotations", err) {
			if g.aborted {
				break
			}
			continue
		}

		e := Event{
			Timestamp:     ts,
			Datetime:      iso,
			TimestampDesc: "Annotation Added",
			Message:       "Annotation: " + name.String,
			DataType:      tag + ":page:annotation",
		}
		e.SetString("url", urlOr(url))
		e.SetString("annotation_name", name.String)
		if content.Valid {
			e.SetString("annotation_value", content.String)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// geckoInteractions extracts per-page engagement metrics from
// moz_places_metadata (Firefox 94+).
func geckoInteractions(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	rows, err := db.Query(`
		SELECT m.created_at, m.updated_at, m.total_view_time, m.typing_time,
		       m.key_presses, m.scrolling_distance, p.url, p.title
		FROM moz_places_metadata m
		JOIN moz_places p ON m.place_id = p.id
		ORDER BY m.created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var createdAt, updatedAt, viewTime, typingTime, keyPresses, scrollDist sql.NullInt64
		var url, title sql.NullString

		if err := rows.Scan(&createdAt, &updatedAt, &viewTime, &typingTime,
			&keyPresses, &scrollDist, &url, &title); err != nil {
			return events, fmt.Errorf("scan interaction: %w", err)
		}

		// moz_places_metadata stores milliseconds, unlike the
		// microsecond columns everywhere else in places.sqlite.
		ts, iso, err := timeconv.Gecko(createdAt.Int64 * 1000)
		if !g.pass("interactions", err) {
			if g.aborted {
				break
			}
			continue
		}

		e := Event{
			Timestamp:     ts,
			Datetime:      iso,
			TimestampDesc: "Interaction Started",
			Message:       "Page interaction: " + titleOr(title),
			DataType:      tag + ":page:interaction",
		}
		e.SetString("url", urlOr(url))
		e.SetString("title", titleOr(title))
		if viewTime.Valid {
			e.SetInt("total_view_time_ms", viewTime.Int64)
		}
		if typingTime.Valid {
			e.SetInt("typing_time_ms", typingTime.Int64)
		}
		if keyPresses.Valid {
			e.SetInt("key_presses", keyPresses.Int64)
		}
		if scrollDist.Valid {
			e.SetInt("scrolling_distance", scrollDist.Int64)
		}
		events = append(events, e)

		if updatedAt.Int64 == 0 || updatedAt.Int64 == createdAt.Int64 {
			continue
		}
		updTS, updISO, err := timeconv.Gecko(updatedAt.Int64 * 1000)
		if !g.pass("interactions", err) {
			if g.aborted {
				break
			}
			continue
		}
		upd := Event{
			Timestamp:     updTS,
			Datetime:      updISO,
			TimestampDesc: "Interaction Updated",
			Message:       "Page interaction: " + titleOr(title),
			DataType:      tag + ":page:interaction",
		}
		upd.SetString("url", urlOr(url))
		upd.SetString("title", titleOr(title))
		events = append(events, upd)
	}
	return events, rows.Err()
}

// geckoInputHistory extracts address-bar input history. The table has
// no timestamp of its own; the place's last visit stands in.
func geckoInputHistory(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	rows, err := db.Query(`
		SELECT i.input, i.use_count, p.url, p.title, p.last_visit_date
		FROM moz_inputhistory i
		JOIN moz_places p ON i.place_id = p.id
		ORDER BY p.last_visit_date
	`)
	if err != nil {
		return nil, fmt.Errorf("query input history: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var input, url, title sql.NullString
		var useCount sql.NullFloat64
		var lastVisit sql.NullInt64

		if err := rows.Scan(&input, &useCount, &url, &title, &lastVisit); err != nil {
			return events, fmt.Errorf("scan input history: %w", err)
		}

		ts, iso, err := timeconv.Gecko(lastVisit.Int64)
		if !g.pass("input_history", err) {
			if g.aborted {
				break
			}
			continue
		}

		e := Event{
			Timestamp:     ts,
			Datetime:      iso,
			TimestampDesc: "Last Visit Time",
			Message:       "Address bar input: " + input.String,
			DataType:      tag + ":urlbar:input",
		}
		e.SetString("url", urlOr(url))
		e.SetString("title", titleOr(title))
		e.SetString("input", input.String)
		if useCount.Valid {
			e.SetFloat("use_count", useCount.Float64)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// geckoKeywords extracts custom search keywords bound to places.
func geckoKeywords(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	rows, err := db.Query(`
		SELECT k.keyword, p.url, p.title, p.last_visit_date
		FROM moz_keywords k
		JOIN moz_places p ON k.place_id = p.id
		ORDER BY p.last_visit_date
	`)
	if err != nil {
		return nil, fmt.Errorf("query keywords: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var keyword, url, title sql.NullString
		var lastVisit sql.NullInt64

		if err := rows.Scan(&keyword, &url, &title, &lastVisit); err != nil {
			return events, fmt.Errorf("scan keyword: %w", err)
		}

		ts, iso, err := timeconv.Gecko(lastVisit.Int64)
		if !g.pass("keywords", err) {
			if g.aborted {
				break
			}
			continue
		}

		e := Event{
			Timestamp:     ts,
			Datetime:      iso,
			TimestampDesc: "Last Visit Time",
			Message:       "Search keyword: " + keyword.String,
			DataType:      tag + ":search:keyword",
		}
		e.SetString("url", urlOr(url))
		e.SetString("title", titleOr(title))
		e.SetString("keyword", keyword.String)
		events = append(events, e)
	}
	return events, rows.Err()
}

// geckoOrigins emits one event per origin carrying its frecency score
// and most recent visit.
func geckoOrigins(db *sql.DB, tag string, g *tsGuard) ([]Event, error) {
	rows, err := db.Query(`
		SELECT o.prefix, o.host, o.frecency, MAX(p.last_visit_date)
		FROM moz_origins o
		JOIN moz_places p ON p.origin_id = o.id
		GROUP BY o.id
		ORDER BY MAX(p.last_visit_date)
	`)
	if err != nil {
		return nil, fmt.Errorf("query origins: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var prefix, host sql.NullString
		var frecency, lastVisit sql.NullInt64

		if err := rows.Scan(&prefix, &host, &frecency, &lastVisit); err != nil {
			return events, fmt.Errorf("scan origin: %w", err)
		}

		ts, iso, err := timeconv.Gecko(lastVisit.Int64)
		if !g.pass("origins", err) {
			if g.aborted {
				break
			}
			continue
		}

		e := Event{
			Timestamp:     ts,
			Datetime:      iso,
			TimestampDesc: "Last Visit Time",
			Message:       "Visited domain: " + host.String,
			DataType:      tag + ":origin:visit",
		}
		e.SetString("url", prefix.String+host.String)
		e.SetString("host", host.String)
		if frecency.Valid {
			e.SetInt("frecency", frecency.Int64)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
