package models

// Facts are the fixed manual details shown in the executive strip
type Facts struct {
	DocumentNo        string `json:"document_no"`
	Version           string `json:"version"`
	Authority         string `json:"authority"`
	LicenseValidUntil string `json:"license_valid_until"`
	ResponsiblePerson string `json:"responsible_person"`
}

// Dashboard is everything one page render needs
type Dashboard struct {
	User     string
	Updated  string
	Facts    Facts
	Files    []FileStatus
	KPIs     []KPI
	Tallies  []Tally
	Dose     DoseResponse
	Preview  *PreviewResponse
	Warnings []string

	HasReceiptRoute bool
	HasZoning       bool
	ReceiptRoute    FileStatus
	Zoning          FileStatus
}
