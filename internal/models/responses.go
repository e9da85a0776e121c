package models

// Placeholder is shown wherever a metric cannot be derived
const Placeholder = "—"

// UploadResponse summarises one multipart upload
type UploadResponse struct {
	Accepted []FileStatus `json:"accepted"`
	Warnings []string     `json:"warnings,omitempty"`
}

// FileStatus represents status of an upload slot
type FileStatus struct {
	Slot     string `json:"slot"`
	Label    string `json:"label"`
	Loaded   bool   `json:"loaded"`
	Status   string `json:"status"`
	Filename string `json:"filename,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Rows     int    `json:"rows,omitempty"`
	Columns  int    `json:"columns,omitempty"`
}

// StatusResponse is returned by /api/status
type StatusResponse struct {
	User          string       `json:"user"`
	Authenticated bool         `json:"authenticated"`
	Files         []FileStatus `json:"files"`
}

// KPI is one pillar card of the competency snapshot
type KPI struct {
	Pillar string `json:"pillar"`
	Icon   string `json:"icon"`
	Status string `json:"status"`
	Label  string `json:"label"`
	Value  string `json:"value"`
}

// KPIResponse is returned by /api/kpis
type KPIResponse struct {
	KPIs []KPI `json:"kpis"`
}

// TallyEntry is one bar of a radionuclide chart
type TallyEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Tally is a labelled, ordered count series; HasData is false when the source
// table or its radionuclide column is missing
type Tally struct {
	Slot    string       `json:"slot"`
	Title   string       `json:"title"`
	Entries []TallyEntry `json:"entries"`
	HasData bool         `json:"has_data"`
}

// PreviewResponse for /api/preview
type PreviewResponse struct {
	Filename string              `json:"filename"`
	Rows     int                 `json:"rows"`
	Headers  []string            `json:"headers"`
	Data     []map[string]string `json:"data"`
	Profile  []ColumnProfile     `json:"profile"`
}

// ColumnProfile holds fill and cardinality metrics for one column
type ColumnProfile struct {
	ColumnName    string  `json:"column_name"`
	Role          string  `json:"role,omitempty"`
	Kind          string  `json:"kind"`
	TotalRows     int     `json:"total_rows"`
	NonNullRows   int     `json:"non_null_rows"`
	NullRate      float64 `json:"null_rate"`
	DistinctCount int     `json:"distinct_count"`
}

// ErrorResponse is the body of every JSON error
type ErrorResponse struct {
	Error string `json:"error"`
}
