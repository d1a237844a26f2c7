// Package export serializes normalized events into a flat CSV file
// with a dynamically computed column union.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/runnerr0/retrace/internal/extract"
)

// coreFields is the fixed leading column order. Every remaining key
// follows alphabetically.
var coreFields = []string{"timestamp", "datetime", "timestamp_desc", "message", "data_type"}

// Header computes the output column set for a batch of events: the
// five core fields in fixed order, then the union of all extra keys in
// lexicographic order.
func Header(events []extract.Event) []string {
	seen := make(map[string]bool)
	for _, e := range events {
		for _, f := range e.Fields {
			seen[f.Key] = true
		}
	}
	// Core names never duplicate into the extras.
	for _, c := range coreFields {
		delete(seen, c)
	}

	extras := make([]string, 0, len(seen))
	for k := range seen {
		extras = append(extras, k)
	}
	sort.Strings(extras)

	return append(append([]string{}, coreFields...), extras...)
}

// formatValue renders a typed scalar as a CSV cell.
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Row renders one event against a header. Columns the event lacks are
// blank; keys outside the header are dropped.
func Row(header []string, e extract.Event) []string {
	values := map[string]string{
		"timestamp":      strconv.FormatInt(e.Timestamp, 10),
		"datetime":       e.Datetime,
		"timestamp_desc": e.TimestampDesc,
		"message":        e.Message,
		"data_type":      e.DataType,
	}
	for _, f := range e.Fields {
		values[f.Key] = formatValue(f.Value)
	}

	row := make([]string, len(header))
	for i, col := range header {
		row[i] = values[col]
	}
	return row
}

// WriteCSV writes events to path as UTF-8 CSV with one header row.
// An empty event list is a defined no-op: no file is created and the
// caller decides how to report the empty run.
func WriteCSV(path string, events []extract.Event) error {
	if len(events) == 0 {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	w := csv.NewWriter(f)
	header := Header(events)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range events {
		if err := w.Write(Row(header, e)); err != nil {
			f.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush output: %w", err)
	}
	return f.Close()
}
