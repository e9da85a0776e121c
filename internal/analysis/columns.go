package analysis

import (
	"strings"

	"radsafe-dashboard/internal/state"
)

// Keyword lists used to resolve semantic roles onto uploaded column names.
// Order matters: earlier candidates win.
var (
	DateKeywords         = []string{"date"}
	FormKeywords         = []string{"form"}
	PurposeKeywords      = []string{"purpose"}
	RadionuclideKeywords = []string{"radionuclide", "isotope", "radioisotope", "nuclide"}
	AnimalIDKeywords     = []string{"animal", "animalid", "id"}
)

// FindColumn returns the first column whose lowercased name contains a
// candidate. Candidates are tried in order; for each, columns are scanned in
// their original order. A nil frame or no match leaves the role unresolved.
func FindColumn(df *state.DataFrame, candidates ...string) (string, bool) {
	if df == nil {
		return "", false
	}
	lowered := make([]string, len(df.Headers))
	for i, h := range df.Headers {
		lowered[i] = strings.ToLower(h)
	}
	for _, cand := range candidates {
		cand = strings.ToLower(cand)
		for i, name := range lowered {
			if strings.Contains(name, cand) {
				return df.Headers[i], true
			}
		}
	}
	return "", false
}

// CountContaining counts rows whose value in col contains substr, ignoring case
func CountContaining(df *state.DataFrame, col, substr string) int {
	n := 0
	for _, v := range df.Column(col) {
		if containsFold(v, substr) {
			n++
		}
	}
	return n
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// RoleOf names the semantic role a header would resolve to, or "" when none
// of the role keyword lists match it
func RoleOf(df *state.DataFrame, header string) string {
	roles := []struct {
		name     string
		keywords []string
	}{
		{"date", DateKeywords},
		{"form", FormKeywords},
		{"purpose", PurposeKeywords},
		{"radionuclide", RadionuclideKeywords},
		{"animal id", AnimalIDKeywords},
	}
	for _, role := range roles {
		if col, ok := FindColumn(df, role.keywords...); ok && col == header {
			return role.name
		}
	}
	return ""
}
