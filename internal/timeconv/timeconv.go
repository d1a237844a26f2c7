// Package timeconv converts engine-native browser timestamps to a
// canonical (unix microseconds, ISO-8601 UTC string) pair.
//
// Each browser engine family stores timestamps against its own epoch:
// Gecko uses microseconds since the Unix epoch, Chromium microseconds
// since 1601-01-01 (the Windows FILETIME epoch), and WebKit fractional
// seconds since 2001-01-01 (the Cocoa epoch).
package timeconv

import (
	"fmt"
	"math"
	"time"
)

const (
	// chromiumEpochOffset is the distance in seconds between the
	// Chromium epoch (1601-01-01) and the Unix epoch (1970-01-01).
	chromiumEpochOffset = 11644473600

	// webkitEpochOffset is the distance in seconds between the Unix
	// epoch (1970-01-01) and the WebKit/Cocoa epoch (2001-01-01).
	webkitEpochOffset = 978307200

	// isoLayout renders UTC instants at second precision with an
	// explicit +00:00 offset.
	isoLayout = "2006-01-02T15:04:05+00:00"
)

// Sanity window for converted timestamps, in Unix seconds. A value
// outside (exclusive) of this range is almost always an epoch bug in
// the caller, not a real browsing record.
var (
	minValid = time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	maxValid = time.Date(2040, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
)

// OutOfRangeError reports a converted timestamp outside the sanity
// window (1990-01-01 .. 2040-01-01 UTC, exclusive).
type OutOfRangeError struct {
	Micros int64
}

func (e *OutOfRangeError) Error() string {
	sec := e.Micros / 1_000_000
	return fmt.Sprintf("timestamp out of range: %d (%s)", e.Micros,
		time.Unix(sec, 0).UTC().Format(isoLayout))
}

// validate checks the sanity window. Zero values never reach here.
func validate(micros int64) error {
	sec := micros / 1_000_000
	if sec <= minValid || sec >= maxValid {
		return &OutOfRangeError{Micros: micros}
	}
	return nil
}

// render returns the canonical pair for a validated microsecond value.
func render(micros int64) (int64, string, error) {
	if err := validate(micros); err != nil {
		return 0, "", err
	}
	sec := micros / 1_000_000
	return micros, time.Unix(sec, 0).UTC().Format(isoLayout), nil
}

// Gecko converts a Gecko/Firefox timestamp (microseconds since the
// Unix epoch). A zero value is the "no timestamp" sentinel and maps to
// (0, "") without validation.
func Gecko(us int64) (int64, string, error) {
	if us == 0 {
		return 0, "", nil
	}
	return render(us)
}

// Chromium converts a Chromium timestamp (microseconds since
// 1601-01-01 UTC). A zero value maps to (0, "") without validation.
func Chromium(us int64) (int64, string, error) {
	if us == 0 {
		return 0, "", nil
	}
	return render(us - chromiumEpochOffset*1_000_000)
}

// WebKit converts a WebKit/Safari timestamp (seconds, possibly
// fractional, since 2001-01-01 UTC). A zero value maps to (0, "")
// without validation.
func WebKit(sec float64) (int64, string, error) {
	if sec == 0 {
		return 0, "", nil
	}
	return render(int64(math.Round((sec + webkitEpochOffset) * 1_000_000)))
}
