package analysis

import (
	"strings"
	"time"

	"radsafe-dashboard/internal/state"

	"github.com/spf13/cast"
)

// DateLayout is the display format for derived dates
const DateLayout = "2006-01-02"

// dateFormats are tried in order; month-first wins for ambiguous slashed dates
var dateFormats = []string{
	"2006-01-02",          // ISO: 2024-01-15
	"2006-01-02 15:04:05", // SQL datetime
	"2006-01-02T15:04:05", // ISO without zone
	time.RFC3339,          // With zone
	"01/02/2006",          // US: 01/15/2024
	"1/2/2006",            // US short
	"01-02-06",            // excelize default date cells
	"1/2/06",
	"2006/01/02",  // Alt ISO
	"02-Jan-2006", // Text: 15-Jan-2024
	"2-Jan-2006",
	"02-Jan-06",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006", // Full text
	"2 January 2006",
	"02.01.2006", // Dotted day-first
}

// ParseDate parses a loosely formatted date cell. Blank or unparseable values
// are reported as missing.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t, true
		}
	}
	if t, err := cast.ToTimeE(value); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// LastDate returns the latest parseable date in col. ok is false when the
// frame or column is missing or no cell parses.
func LastDate(df *state.DataFrame, col string) (time.Time, bool) {
	return LastDateWhere(df, col, nil)
}

// LastDateWhere is LastDate restricted to rows accepted by keep.
// A nil keep accepts every row.
func LastDateWhere(df *state.DataFrame, col string, keep func(row int) bool) (time.Time, bool) {
	idx := df.ColumnIndex(col)
	if df == nil || idx < 0 {
		return time.Time{}, false
	}
	var (
		latest time.Time
		found  bool
	)
	for i := range df.Rows {
		if keep != nil && !keep(i) {
			continue
		}
		t, ok := ParseDate(df.Cell(i, idx))
		if !ok {
			continue
		}
		if !found || t.After(latest) {
			latest = t
			found = true
		}
	}
	return latest, found
}
