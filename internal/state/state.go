package state

import (
	"strings"

	"github.com/spf13/cast"
)

// DataFrame represents a parsed upload: trimmed headers and loosely typed cells
type DataFrame struct {
	Headers  []string
	Rows     [][]string
	FileName string
}

// Len returns the number of data rows; a nil frame has none
func (df *DataFrame) Len() int {
	if df == nil {
		return 0
	}
	return len(df.Rows)
}

// Empty reports whether the frame is absent or has no data rows
func (df *DataFrame) Empty() bool {
	return df.Len() == 0
}

// ColumnIndex returns the position of an exact header name, or -1
func (df *DataFrame) ColumnIndex(name string) int {
	if df == nil {
		return -1
	}
	for i, h := range df.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at row/col, or "" for short rows
func (df *DataFrame) Cell(row, col int) string {
	if df == nil || row < 0 || row >= len(df.Rows) || col < 0 || col >= len(df.Rows[row]) {
		return ""
	}
	return df.Rows[row][col]
}

// Column returns every cell of the named column in row order.
// Unknown columns yield nil.
func (df *DataFrame) Column(name string) []string {
	idx := df.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	values := make([]string, len(df.Rows))
	for i := range df.Rows {
		values[i] = df.Cell(i, idx)
	}
	return values
}

// Record returns row i as a header -> cell mapping
func (df *DataFrame) Record(i int) map[string]string {
	rec := make(map[string]string, len(df.Headers))
	for j, h := range df.Headers {
		rec[h] = df.Cell(i, j)
	}
	return rec
}

// Head returns at most n rows as records, for previews
func (df *DataFrame) Head(n int) []map[string]string {
	if df == nil {
		return nil
	}
	if n > len(df.Rows) || n < 0 {
		n = len(df.Rows)
	}
	out := make([]map[string]string, n)
	for i := 0; i < n; i++ {
		out[i] = df.Record(i)
	}
	return out
}

// GetNumericColumnIndices returns indices of columns whose sampled non-blank
// cells all coerce to numbers
func (df *DataFrame) GetNumericColumnIndices() map[int]bool {
	if df.Empty() {
		return nil
	}

	numericCols := make(map[int]bool)
	for colIdx := range df.Headers {
		isNumeric := true
		seen := 0
		// Check first 20 rows (or all if fewer)
		checkRows := 20
		if len(df.Rows) < checkRows {
			checkRows = len(df.Rows)
		}
		for i := 0; i < checkRows; i++ {
			val := strings.TrimSpace(df.Cell(i, colIdx))
			if val == "" {
				continue
			}
			seen++
			if _, err := cast.ToFloat64E(val); err != nil {
				isNumeric = false
				break
			}
		}
		if isNumeric && seen > 0 {
			numericCols[colIdx] = true
		}
	}
	return numericCols
}
