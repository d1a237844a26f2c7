// Package schema probes the shape of a SQLite database without ever
// failing on what it doesn't find. Browser history schemas drift
// between versions; optional extractors use these probes to disable
// themselves instead of erroring on older or newer databases.
package schema

import "database/sql"

// TableExists reports whether a table with the given name exists.
// A missing table is a normal answer, never an error.
func TableExists(db *sql.DB, name string) bool {
	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&count)
	if err != nil {
		return false
	}
	return count > 0
}

// ColumnExists reports whether the named column exists on the given
// table. Returns false if the table itself is absent or unreadable.
func ColumnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false
		}
		if name == column {
			return true
		}
	}
	return false
}

// TableNames returns all table names in the database, in sqlite_master
// order.
func TableNames(db *sql.DB) ([]string, error) {
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
