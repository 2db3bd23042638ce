package models

// DailyReport is a generated site status report. It is not persisted.
type DailyReport struct {
	Date             string   `json:"date" example:"2026-10-17"`
	ExecutiveSummary string   `json:"executiveSummary"`
	ProgressUpdate   string   `json:"progressUpdate"`
	KeyIssues        []string `json:"keyIssues"`
	Recommendations  []string `json:"recommendations"`
}

// DailyReportDocument pairs a report with the workspace it describes, for
// rendering to PDF or email.
type DailyReportDocument struct {
	Workspace Workspace   `json:"workspace"`
	Report    DailyReport `json:"report"`
}
