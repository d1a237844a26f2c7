package browser

import (
	"os"
)

// Validate runs the pre-flight checks on an input path: the file must
// exist, be a regular file, and open as a SQLite database that can at
// least list its schema. Any failure is a *ValidationError and no
// extraction is attempted.
func Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &ValidationError{Path: path, Reason: "file not found", Err: err}
	}
	if !info.Mode().IsRegular() {
		return &ValidationError{Path: path, Reason: "not a regular file"}
	}

	db, err := OpenReadOnly(path)
	if err != nil {
		return &ValidationError{Path: path, Reason: "cannot open", Err: err}
	}
	defer db.Close()

	// sql.Open is lazy; force a real read. A locked, corrupt, or
	// non-SQLite file fails here.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count); err != nil {
		return &ValidationError{Path: path, Reason: "not a readable SQLite database", Err: err}
	}
	return nil
}
