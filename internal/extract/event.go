// Package extract maps engine-native history records to normalized,
// browser-agnostic timeline events.
package extract

import "database/sql"

// NoTitle is the placeholder used when a source row has no title.
const NoTitle = "(No title)"

// Field is one category-specific attribute on an event. Values are
// restricted to string, int64, float64, or bool by the setters.
type Field struct {
	Key   string
	Value any
}

// Event is the single normalized output unit: five fixed core fields
// plus an ordered bag of category-specific attributes.
type Event struct {
	// Timestamp is canonical Unix microseconds; 0 means unset.
	Timestamp int64
	// Datetime is the ISO-8601 UTC rendering of Timestamp, "" when unset.
	Datetime      string
	TimestampDesc string
	Message       string
	// DataType is the colon-delimited category tag, e.g.
	// "firefox:history:visit".
	DataType string

	Fields []Field
}

func (e *Event) set(key string, value any) {
	e.Fields = append(e.Fields, Field{Key: key, Value: value})
}

// SetString adds a string attribute.
func (e *Event) SetString(key, value string) { e.set(key, value) }

// SetInt adds an integer attribute.
func (e *Event) SetInt(key string, value int64) { e.set(key, value) }

// SetFloat adds a float attribute.
func (e *Event) SetFloat(key string, value float64) { e.set(key, value) }

// SetBool adds a boolean attribute.
func (e *Event) SetBool(key string, value bool) { e.set(key, value) }

// Get returns the value for key, if present.
func (e *Event) Get(key string) (any, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// urlOr returns the scanned URL or the empty-string default.
func urlOr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// titleOr returns the scanned title or the NoTitle placeholder. An
// empty stored title also maps to the placeholder.
func titleOr(ns sql.NullString) string {
	if ns.Valid && ns.String != "" {
		return ns.String
	}
	return NoTitle
}
