package ir

import (
	"fmt"
	"time"
)

// TimeLayout is the TEXT form of stored time values. It is always rendered in
// UTC with nine fractional digits, so lexical order equals chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Layouts accepted when reading time values written by other tools.
var parseLayouts = []string{
	TimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a stored time value. Values without a zone are read as UTC.
func ParseTime(raw string) (time.Time, error) {
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: unrecognised layout", raw)
}
