package service

import (
	"time"

	"radsafe-dashboard/internal/models"
	"radsafe-dashboard/internal/state"
)

// PreviewRows is how many receipt rows the dashboard previews
const PreviewRows = 30

// SlotLabels are the human names of the upload fields
var SlotLabels = map[state.Slot]string{
	state.SlotFloorPlan:    "Receiving route floor plan (PNG/JPG)",
	state.SlotRouteOverlay: "Route overlay (PNG)",
	state.SlotZoning:       "Radiation zoning plan (PNG/JPG)",
	state.SlotQCReports:    "QC reports (PDF/CSV/XLSX)",
	state.SlotReceipt:      "Radionuclide receipt / use log (CSV/XLSX)",
	state.SlotSealed:       "Sealed source inventory log (CSV/XLSX)",
	state.SlotInVivo:       "In vivo administration log (CSV/XLSX)",
	state.SlotAnimals:      "Radioactive animals log (CSV/XLSX)",
	state.SlotDose:         "TLD dose record (CSV/XLSX)",
}

// DashboardService assembles the per-request view model. It holds no session
// data; every Build recomputes from the files it is given.
type DashboardService struct {
	Facts    models.Facts
	Profiler *DataQualityProfiler
	Now      func() time.Time
}

func NewDashboardService(facts models.Facts) *DashboardService {
	return &DashboardService{
		Facts:    facts,
		Profiler: NewDataQualityProfiler(),
		Now:      time.Now,
	}
}

// FileStatuses reports availability of every slot
func FileStatuses(files state.Files) []models.FileStatus {
	out := make([]models.FileStatus, 0, len(state.Slots))
	for _, slot := range state.Slots {
		out = append(out, FileStatusOf(files, slot))
	}
	return out
}

// FileStatusOf reports availability of a single slot
func FileStatusOf(files state.Files, slot state.Slot) models.FileStatus {
	fs := models.FileStatus{
		Slot:   string(slot),
		Label:  SlotLabels[slot],
		Loaded: files.Has(slot),
		Status: Availability(files, slot),
	}
	if up := files.Uploads[slot]; up != nil {
		fs.Filename = up.FileName
		fs.Size = up.Size
	}
	if df := files.Table(slot); df != nil {
		fs.Rows = df.Len()
		fs.Columns = len(df.Headers)
	}
	return fs
}

// Dose computes the dose summary and the filtered, sorted view
func (s *DashboardService) Dose(files state.Files, query string) models.DoseResponse {
	records, source := DoseSource(files.Table(state.SlotDose))
	summary := SummarizeDoses(records)
	summary.Source = source
	return models.DoseResponse{
		Summary: summary,
		Query:   query,
		Records: FilterDoses(records, query),
	}
}

// Preview returns the first rows of the receipt log with a column profile,
// or nil when no receipt log is loaded
func (s *DashboardService) Preview(files state.Files, rows int) *models.PreviewResponse {
	df := files.Table(state.SlotReceipt)
	if df == nil {
		return nil
	}
	if rows <= 0 {
		rows = PreviewRows
	}
	return &models.PreviewResponse{
		Filename: df.FileName,
		Rows:     df.Len(),
		Headers:  df.Headers,
		Data:     df.Head(rows),
		Profile:  s.Profiler.ProfileAllColumns(df),
	}
}

// Build recomputes the whole dashboard for one render
func (s *DashboardService) Build(sess *state.Session, query string) models.Dashboard {
	files := sess.Files()

	tallies := make([]models.Tally, 0, len(TallySlots))
	for _, ts := range TallySlots {
		tallies = append(tallies, BuildTally(files, ts.Slot))
	}

	return models.Dashboard{
		User:            sess.User(),
		Updated:         s.Now().Format("2006-01-02 15:04"),
		Facts:           s.Facts,
		Files:           FileStatuses(files),
		KPIs:            ComputeKPIs(files),
		Tallies:         tallies,
		Dose:            s.Dose(files, query),
		Preview:         s.Preview(files, PreviewRows),
		Warnings:        sess.TakeWarnings(),
		HasReceiptRoute: files.Has(state.SlotFloorPlan),
		HasZoning:       files.Has(state.SlotZoning),
		ReceiptRoute:    FileStatusOf(files, state.SlotFloorPlan),
		Zoning:          FileStatusOf(files, state.SlotZoning),
	}
}
