package models

// DoseRecord is one TLD reading. Hp10 and Hp07 are nil when the uploaded cell
// was blank or not numeric.
type DoseRecord struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Card    string   `json:"card"`
	Hp10    *float64 `json:"hp10_msv"`
	Hp07    *float64 `json:"hp07_msv"`
	Remarks string   `json:"remarks"`
}

// DoseSummary holds the formatted occupational dose KPIs
type DoseSummary struct {
	Monitored int    `json:"monitored"`
	Range     string `json:"hp10_range"`
	Mean      string `json:"hp10_mean"`
	Annual    string `json:"projected_annual"`
	Source    string `json:"source"`
}

// DoseResponse for /api/dose
type DoseResponse struct {
	Summary DoseSummary  `json:"summary"`
	Query   string       `json:"query"`
	Records []DoseRecord `json:"records"`
}
