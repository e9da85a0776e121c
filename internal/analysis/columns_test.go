package analysis

import (
	"testing"

	"radsafe-dashboard/internal/state"
)

func frame(headers ...string) *state.DataFrame {
	return &state.DataFrame{Headers: headers}
}

func TestFindColumn(t *testing.T) {
	tests := []struct {
		name       string
		headers    []string
		candidates []string
		want       string
		wantOK     bool
	}{
		{"case insensitive", []string{"Receipt DATE", "Form"}, []string{"date"}, "Receipt DATE", true},
		{"first matching column wins", []string{"Date Received", "Date Used"}, []string{"date"}, "Date Received", true},
		{"earlier candidate beats earlier column", []string{"Nuclide", "Radionuclide"}, RadionuclideKeywords, "Radionuclide", true},
		{"later candidate used when earlier misses", []string{"Code", "Isotope"}, RadionuclideKeywords, "Isotope", true},
		{"ambiguous header resolves to first role asked", []string{"Purpose Date", "Purpose"}, []string{"purpose"}, "Purpose Date", true},
		{"uppercase candidate still matches", []string{"purpose"}, []string{"PURPOSE"}, "purpose", true},
		{"no match", []string{"Activity", "Lot"}, []string{"date"}, "", false},
		{"no columns", nil, []string{"date"}, "", false},
		{"no candidates", []string{"Date"}, nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindColumn(frame(tt.headers...), tt.candidates...)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("FindColumn(%v, %v) = (%q, %v), want (%q, %v)", tt.headers, tt.candidates, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFindColumnNilFrame(t *testing.T) {
	if col, ok := FindColumn(nil, "date"); ok || col != "" {
		t.Fatalf("expected unresolved for nil frame, got (%q, %v)", col, ok)
	}
}

func TestFindColumnDeterministic(t *testing.T) {
	df := frame("ID", "Animal ID", "Date")
	first, _ := FindColumn(df, AnimalIDKeywords...)
	for i := 0; i < 50; i++ {
		if got, _ := FindColumn(df, AnimalIDKeywords...); got != first {
			t.Fatalf("resolution changed between calls: %q vs %q", got, first)
		}
	}
	if first != "Animal ID" {
		t.Fatalf("expected Animal ID, got %q", first)
	}
}

func TestCountContaining(t *testing.T) {
	df := &state.DataFrame{
		Headers: []string{"Form"},
		Rows:    [][]string{{"Sealed source"}, {"liquid"}, {"SEALED"}, {}},
	}
	if got := CountContaining(df, "Form", "sealed"); got != 2 {
		t.Fatalf("expected 2 sealed rows, got %d", got)
	}
	if got := CountContaining(df, "Missing", "sealed"); got != 0 {
		t.Fatalf("expected 0 for unknown column, got %d", got)
	}
}

func TestRoleOf(t *testing.T) {
	df := frame("Date", "Form", "Purpose", "Isotope", "Animal", "Activity")
	want := map[string]string{
		"Date": "date", "Form": "form", "Purpose": "purpose",
		"Isotope": "radionuclide", "Animal": "animal id", "Activity": "",
	}
	for header, role := range want {
		if got := RoleOf(df, header); got != role {
			t.Errorf("RoleOf(%q) = %q, want %q", header, got, role)
		}
	}
}
