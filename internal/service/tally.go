package service

import (
	"sort"
	"strings"

	"radsafe-dashboard/internal/analysis"
	"radsafe-dashboard/internal/models"
	"radsafe-dashboard/internal/state"
)

// MaxTallyEntries is how many radionuclides a chart shows
const MaxTallyEntries = 8

// TallyRadionuclides counts each distinct trimmed radionuclide value, most
// frequent first (ties keep first appearance), capped at MaxTallyEntries.
// It returns nil when the frame is empty or has no radionuclide column.
func TallyRadionuclides(df *state.DataFrame) []models.TallyEntry {
	if df.Empty() {
		return nil
	}
	col, ok := analysis.FindColumn(df, analysis.RadionuclideKeywords...)
	if !ok {
		return nil
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, v := range df.Column(col) {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	if len(order) == 0 {
		return nil
	}

	entries := make([]models.TallyEntry, len(order))
	for i, label := range order {
		entries[i] = models.TallyEntry{Label: label, Count: counts[label]}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if len(entries) > MaxTallyEntries {
		entries = entries[:MaxTallyEntries]
	}
	return entries
}

// tallySource ties a chart to its source slot
type tallySource struct {
	Slot  state.Slot
	Title string
}

// TallySlots are the slots that get a radionuclide chart, in display order
var TallySlots = []tallySource{
	{state.SlotReceipt, "Receiving by radionuclide"},
	{state.SlotSealed, "Sealed sources by radionuclide"},
	{state.SlotInVivo, "In vivo administrations by radionuclide"},
}

// TallyTitle returns the chart title for a slot and whether the slot is charted
func TallyTitle(slot state.Slot) (string, bool) {
	for _, ts := range TallySlots {
		if ts.Slot == slot {
			return ts.Title, true
		}
	}
	return "", false
}

// BuildTally wraps TallyRadionuclides for one slot
func BuildTally(files state.Files, slot state.Slot) models.Tally {
	title, _ := TallyTitle(slot)
	entries := TallyRadionuclides(files.Table(slot))
	if entries == nil {
		entries = []models.TallyEntry{}
	}
	return models.Tally{
		Slot:    string(slot),
		Title:   title,
		Entries: entries,
		HasData: len(entries) > 0,
	}
}
