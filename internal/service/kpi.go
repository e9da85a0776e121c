package service

import (
	"fmt"
	"strconv"
	"strings"

	"radsafe-dashboard/internal/analysis"
	"radsafe-dashboard/internal/models"
	"radsafe-dashboard/internal/state"
)

// LastReceiptDate is the latest parseable date in the receipt log
func LastReceiptDate(receipt *state.DataFrame) string {
	col, ok := analysis.FindColumn(receipt, analysis.DateKeywords...)
	if !ok {
		return models.Placeholder
	}
	last, ok := analysis.LastDate(receipt, col)
	if !ok {
		return models.Placeholder
	}
	return last.Format(analysis.DateLayout)
}

// SealedSourceCount counts the sealed inventory rows, or failing that the
// receipt rows whose form mentions "sealed"
func SealedSourceCount(sealed, receipt *state.DataFrame) string {
	if !sealed.Empty() {
		return strconv.Itoa(sealed.Len())
	}
	if receipt == nil {
		return models.Placeholder
	}
	formCol, ok := analysis.FindColumn(receipt, analysis.FormKeywords...)
	if !ok {
		return models.Placeholder
	}
	return strconv.Itoa(analysis.CountContaining(receipt, formCol, "sealed"))
}

// LastQCDate is the latest date among receipt rows whose purpose mentions QC
func LastQCDate(receipt *state.DataFrame) string {
	dateCol, ok := analysis.FindColumn(receipt, analysis.DateKeywords...)
	if !ok {
		return models.Placeholder
	}
	purposeCol, ok := analysis.FindColumn(receipt, analysis.PurposeKeywords...)
	if !ok {
		return models.Placeholder
	}
	purposeIdx := receipt.ColumnIndex(purposeCol)
	last, ok := analysis.LastDateWhere(receipt, dateCol, func(row int) bool {
		return strings.Contains(strings.ToLower(receipt.Cell(row, purposeIdx)), "qc")
	})
	if !ok {
		return models.Placeholder
	}
	return last.Format(analysis.DateLayout)
}

// InVivoCount counts in-vivo log rows, or failing that the receipt rows whose
// purpose mentions "in vivo"
func InVivoCount(invivo, receipt *state.DataFrame) string {
	if !invivo.Empty() {
		return strconv.Itoa(invivo.Len())
	}
	if receipt == nil {
		return models.Placeholder
	}
	purposeCol, ok := analysis.FindColumn(receipt, analysis.PurposeKeywords...)
	if !ok {
		return models.Placeholder
	}
	return strconv.Itoa(analysis.CountContaining(receipt, purposeCol, "in vivo"))
}

// AnimalCount counts distinct animal identifiers, or raw rows when no
// identifier column resolves
func AnimalCount(animals *state.DataFrame) string {
	if animals.Empty() {
		return models.Placeholder
	}
	idCol, ok := analysis.FindColumn(animals, analysis.AnimalIDKeywords...)
	if !ok {
		return fmt.Sprintf("%d records", animals.Len())
	}
	distinct := make(map[string]struct{})
	for _, v := range animals.Column(idCol) {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		distinct[v] = struct{}{}
	}
	return fmt.Sprintf("%d animals", len(distinct))
}

// Availability renders the status line of a slot
func Availability(files state.Files, slot state.Slot) string {
	if files.Has(slot) {
		return "Available"
	}
	return "Not added"
}

// ComputeKPIs builds the five pillar cards from whatever the session holds
func ComputeKPIs(files state.Files) []models.KPI {
	receipt := files.Table(state.SlotReceipt)
	sealed := files.Table(state.SlotSealed)
	invivo := files.Table(state.SlotInVivo)
	animals := files.Table(state.SlotAnimals)

	adminStatus := Availability(files, state.SlotReceipt)
	if files.Has(state.SlotInVivo) {
		adminStatus = Availability(files, state.SlotInVivo)
	}

	return []models.KPI{
		{
			Pillar: "Source Security", Icon: "🔐",
			Status: Availability(files, state.SlotSealed),
			Label:  "Sealed sources", Value: SealedSourceCount(sealed, receipt),
		},
		{
			Pillar: "Safe Receiving", Icon: "📦",
			Status: Availability(files, state.SlotReceipt),
			Label:  "Last receipt date", Value: LastReceiptDate(receipt),
		},
		{
			Pillar: "Quality Control", Icon: "🧪",
			Status: Availability(files, state.SlotQCReports),
			Label:  "Last QC date", Value: LastQCDate(receipt),
		},
		{
			Pillar: "Safe Administration", Icon: "🐭",
			Status: adminStatus,
			Label:  "In vivo count", Value: InVivoCount(invivo, receipt),
		},
		{
			Pillar: "Animal Management", Icon: "🐾",
			Status: Availability(files, state.SlotAnimals),
			Label:  "Animals (or records)", Value: AnimalCount(animals),
		},
	}
}
