package analysis

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"radsafe-dashboard/internal/state"

	"github.com/xuri/excelize/v2"
)

// DefaultMaxRows caps how many data rows a single upload may carry
const DefaultMaxRows = 10000

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyTable        = errors.New("empty table")
	ErrTooManyRows       = errors.New("too many rows")
)

// TableService turns uploaded delimited text and spreadsheets into DataFrames
type TableService struct {
	MaxRows int
}

func NewTableService(maxRows int) *TableService {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &TableService{MaxRows: maxRows}
}

// Parse reads a table, choosing the reader by file extension. Errors carry
// the reason only; callers report which file failed.
func (s *TableService) Parse(name string, r io.Reader) (*state.DataFrame, error) {
	var (
		df  *state.DataFrame
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		df, err = parseCSV(r)
	case ".xlsx", ".xlsm", ".xltx":
		df, err = parseExcel(r)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	if len(df.Rows) > s.MaxRows {
		return nil, fmt.Errorf("%w (> %d)", ErrTooManyRows, s.MaxRows)
	}
	df.FileName = name
	return df, nil
}

func parseCSV(r io.Reader) (*state.DataFrame, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	records, err := readDelimited(raw, ',')
	if err != nil {
		return nil, err
	}
	// Semicolon-separated exports show up as a single header field
	if len(records) > 0 && len(records[0]) == 1 && strings.Contains(records[0][0], ";") {
		if alt, altErr := readDelimited(raw, ';'); altErr == nil {
			records = alt
		}
	}
	return buildFrame(records)
}

func readDelimited(raw []byte, comma rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = comma
	reader.FieldsPerRecord = -1 // Allow variable fields
	reader.LazyQuotes = true    // Allow bare quotes in non-quoted fields
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func parseExcel(r io.Reader) (*state.DataFrame, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	return buildFrame(rows)
}

// buildFrame trims headers, names blank ones and drops fully blank rows
func buildFrame(records [][]string) (*state.DataFrame, error) {
	start := 0
	for start < len(records) && blankRow(records[start]) {
		start++
	}
	if start == len(records) {
		return nil, ErrEmptyTable
	}

	headers := make([]string, len(records[start]))
	for i, h := range records[start] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		headers[i] = h
	}
	uniqueHeaders(headers)

	rows := make([][]string, 0, len(records)-start-1)
	for _, rec := range records[start+1:] {
		if blankRow(rec) {
			continue
		}
		rows = append(rows, rec)
	}

	return &state.DataFrame{Headers: headers, Rows: rows}, nil
}

// uniqueHeaders renames repeated headers to "Name.1", "Name.2", ... so every
// column stays addressable by name. Generated names skip ones already present.
func uniqueHeaders(headers []string) {
	taken := make(map[string]bool, len(headers))
	for _, h := range headers {
		taken[h] = true
	}
	used := make(map[string]bool, len(headers))
	next := make(map[string]int)
	for i, h := range headers {
		if !used[h] {
			used[h] = true
			continue
		}
		for {
			next[h]++
			candidate := fmt.Sprintf("%s.%d", h, next[h])
			if !taken[candidate] && !used[candidate] {
				headers[i] = candidate
				used[candidate] = true
				break
			}
		}
	}
}

func blankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
