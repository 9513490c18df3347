package model

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order. Layouts carrying an offset are parsed
// and then reduced to their wall clock.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a transaction timestamp into a naive time: the wall
// clock written in the source with any offset discarded, expressed in UTC.
// Source data mixes "Z", "+00:00" and offset-less values, so every comparison
// must go through this normalization.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), true
		}
	}
	return time.Time{}, false
}

// ParseFloat coerces a raw cell into a float. Empty, unparseable or infinite
// cells become NaN rather than an error.
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// FormatFloat renders a float for CSV output; NaN becomes an empty cell.
func FormatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
