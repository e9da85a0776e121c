package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"radsafe-dashboard/internal/analysis"
	"radsafe-dashboard/internal/models"
	"radsafe-dashboard/internal/state"

	"github.com/spf13/cast"
)

// AnnualProjectionFactor extrapolates a quarterly Hp(10) mean to a year.
// It is a planning heuristic, not a regulatory dose calculation.
const AnnualProjectionFactor = 4

// Dose column keyword lists
var (
	doseCodeKeywords    = []string{"code"}
	doseNameKeywords    = []string{"name"}
	doseCardKeywords    = []string{"card"}
	doseHp10Keywords    = []string{"hp10", "hp(10)", "hp 10"}
	doseHp07Keywords    = []string{"hp07", "hp(0.07)", "hp0.07", "hp 0.07"}
	doseRemarksKeywords = []string{"remark", "note", "comment"}
)

// defaultDoseRows is the built-in quarterly TLD report used until a dose file
// is uploaded: code, name, card, Hp10, Hp07, remarks
var defaultDoseRows = [][6]string{
	{"778", "DR ESSA LOUTFI", "7134", "0.124", "0.139", ""},
	{"1137", "MR AHMED MAHMOUD MPHAMED", "7145", "0.132", "0.139", ""},
	{"1342", "MR MOHAMED ABDUL MONEM S.", "7153", "0.123", "0.122", ""},
	{"1398", "DR B KUMARI VASANTHY", "7274", "0.122", "0.125", ""},
	{"1411", "DR FATIMA AL-SAIDEE", "7346", "0.129", "0.133", ""},
	{"1686", "MISS HEBA MOHAMED HAMED", "7348", "0.126", "0.124", ""},
	{"1728", "MRS JEHAN AL SHAMMARI", "7393", "0.133", "0.131", ""},
	{"3265", "MS ASEEL AHMED AL KANDARI", "7396", "0.123", "0.124", ""},
	{"3285", "DR SAUD A H. AL-ENEZI", "7595", "0.123", "0.132", ""},
	{"5078", "DR MOHAMMAD ZAFARYAB", "7755", "0.105", "0.106", ""},
	{"5217", "DR F.X. ELIZABETH JAYANTHI", "7747", "0.106", "0.112", ""},
	{"5218", "MRS FATIMA SEQUEIRA", "7739", "0.129", "0.135", ""},
	{"5513", "DR SHOROUK FALEH DANNOON", "7738", "0.157", "0.169", ""},
	{"6091", "MR WALEED SAMIR ALI", "7737", "0.137", "0.144", "NEW"},
	{"8220", "DR MARIAM YOUSSEF HUSSAIN", "7724", "0.159", "0.159", ""},
	{"8916", "MRS JEHAN ESSAM GHONEIM", "7722", "0.107", "0.114", ""},
	{"9352", "MR MOHAMMED JASEEM PATTILLATH", "7721", "0.134", "0.130", "NEW"},
	{"9698", "DR SELMA SAAD ALKAFEEF", "6639", "0.135", "0.131", "NEW"},
	{"9699", "MRS ABIRAMI SELLAPANDIAN", "7241", "0.159", "0.163", "NEW"},
	{"9700", "MR YOUSEF RAED YOUSEF", "6205", "0.120", "0.123", "NEW"},
}

// DefaultDoseRecords returns a fresh copy of the built-in dose list
func DefaultDoseRecords() []models.DoseRecord {
	records := make([]models.DoseRecord, len(defaultDoseRows))
	for i, row := range defaultDoseRows {
		records[i] = models.DoseRecord{
			Code:    row[0],
			Name:    row[1],
			Card:    row[2],
			Hp10:    ToDose(row[3]),
			Hp07:    ToDose(row[4]),
			Remarks: row[5],
		}
	}
	return records
}

// ToDose coerces a cell to millisievert. Blank, non-numeric, NaN and infinite
// values are missing.
func ToDose(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	f, err := cast.ToFloat64E(value)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// DoseRecordsFromTable resolves dose columns heuristically and types each row.
// Unresolved columns leave their field empty (or missing, for doses).
func DoseRecordsFromTable(df *state.DataFrame) []models.DoseRecord {
	if df.Empty() {
		return nil
	}
	idx := func(keywords []string) int {
		col, ok := analysis.FindColumn(df, keywords...)
		if !ok {
			return -1
		}
		return df.ColumnIndex(col)
	}
	code, name, card := idx(doseCodeKeywords), idx(doseNameKeywords), idx(doseCardKeywords)
	hp10, hp07, remarks := idx(doseHp10Keywords), idx(doseHp07Keywords), idx(doseRemarksKeywords)

	records := make([]models.DoseRecord, df.Len())
	for i := range df.Rows {
		records[i] = models.DoseRecord{
			Code:    strings.TrimSpace(df.Cell(i, code)),
			Name:    strings.TrimSpace(df.Cell(i, name)),
			Card:    strings.TrimSpace(df.Cell(i, card)),
			Hp10:    ToDose(df.Cell(i, hp10)),
			Hp07:    ToDose(df.Cell(i, hp07)),
			Remarks: strings.TrimSpace(df.Cell(i, remarks)),
		}
	}
	return records
}

// DoseSource picks the uploaded dose table when it has rows, else the built-in list
func DoseSource(df *state.DataFrame) ([]models.DoseRecord, string) {
	if !df.Empty() {
		return DoseRecordsFromTable(df), df.FileName
	}
	return DefaultDoseRecords(), "built-in TLD report"
}

// DoseStats are the raw Hp(10) aggregates over non-missing readings
type DoseStats struct {
	Monitored int
	Min       float64
	Max       float64
	Mean      float64
	Annual    float64
}

// ComputeDoseStats aggregates Hp(10); ok is false when no reading is present
func ComputeDoseStats(records []models.DoseRecord) (DoseStats, bool) {
	var st DoseStats
	sum := 0.0
	for _, r := range records {
		if r.Hp10 == nil {
			continue
		}
		v := *r.Hp10
		if st.Monitored == 0 || v < st.Min {
			st.Min = v
		}
		if st.Monitored == 0 || v > st.Max {
			st.Max = v
		}
		sum += v
		st.Monitored++
	}
	if st.Monitored == 0 {
		return st, false
	}
	st.Mean = sum / float64(st.Monitored)
	st.Annual = st.Mean * AnnualProjectionFactor
	return st, true
}

// SummarizeDoses formats the dose KPIs, using the placeholder when there are no readings
func SummarizeDoses(records []models.DoseRecord) models.DoseSummary {
	st, ok := ComputeDoseStats(records)
	if !ok {
		return models.DoseSummary{
			Range:  models.Placeholder,
			Mean:   models.Placeholder,
			Annual: models.Placeholder,
		}
	}
	return models.DoseSummary{
		Monitored: st.Monitored,
		Range:     fmt.Sprintf("%.3f – %.3f", st.Min, st.Max),
		Mean:      fmt.Sprintf("%.3f", st.Mean),
		Annual:    fmt.Sprintf("%.2f", st.Annual),
	}
}

// FilterDoses returns a new slice of records whose name contains query
// (case-insensitive), sorted by Hp(10) descending with missing readings last.
// The input is left untouched.
func FilterDoses(records []models.DoseRecord, query string) []models.DoseRecord {
	needle := strings.ToLower(strings.TrimSpace(query))
	view := make([]models.DoseRecord, 0, len(records))
	for _, r := range records {
		if needle != "" && !strings.Contains(strings.ToLower(r.Name), needle) {
			continue
		}
		view = append(view, r)
	}
	sort.SliceStable(view, func(i, j int) bool {
		a, b := view[i].Hp10, view[j].Hp10
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return *a > *b
	})
	return view
}
