package service

import (
	"strings"

	"radsafe-dashboard/internal/analysis"
	"radsafe-dashboard/internal/models"
	"radsafe-dashboard/internal/state"
)

// DataQualityProfiler summarises how well each uploaded column is filled and
// which semantic role, if any, it resolves to
type DataQualityProfiler struct{}

// NewDataQualityProfiler creates a new profiler
func NewDataQualityProfiler() *DataQualityProfiler {
	return &DataQualityProfiler{}
}

// ProfileColumn analyzes fill metrics for a single column
func (dqp *DataQualityProfiler) ProfileColumn(df *state.DataFrame, colIdx int, numeric map[int]bool) models.ColumnProfile {
	profile := models.ColumnProfile{
		ColumnName: df.Headers[colIdx],
		TotalRows:  len(df.Rows),
		Role:       analysis.RoleOf(df, df.Headers[colIdx]),
	}

	uniqueValues := make(map[string]int)
	dates := 0
	for i := range df.Rows {
		value := strings.TrimSpace(df.Cell(i, colIdx))
		if isNullValue(value) {
			continue
		}
		profile.NonNullRows++
		uniqueValues[value]++
		if _, ok := analysis.ParseDate(value); ok {
			dates++
		}
	}
	profile.DistinctCount = len(uniqueValues)

	if profile.TotalRows > 0 {
		profile.NullRate = float64(profile.TotalRows-profile.NonNullRows) / float64(profile.TotalRows)
	}

	switch {
	case numeric[colIdx]:
		profile.Kind = "numeric"
	case profile.NonNullRows > 0 && dates == profile.NonNullRows:
		profile.Kind = "date"
	default:
		profile.Kind = "text"
	}
	return profile
}

// ProfileAllColumns profiles all columns in a dataframe
func (dqp *DataQualityProfiler) ProfileAllColumns(df *state.DataFrame) []models.ColumnProfile {
	if df == nil {
		return nil
	}
	numeric := df.GetNumericColumnIndices()
	profiles := make([]models.ColumnProfile, len(df.Headers))
	for i := range df.Headers {
		profiles[i] = dqp.ProfileColumn(df, i, numeric)
	}
	return profiles
}

func isNullValue(v string) bool {
	switch v {
	case "", "null", "NULL", "None", "nan", "NaN", "N/A", "n/a":
		return true
	}
	return false
}
