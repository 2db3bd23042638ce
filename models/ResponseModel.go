package models

// QueryKey identifies one client-side cached query, e.g. ["resources", "<id>"].
type QueryKey []string

// Response is the success envelope for every JSON endpoint.
type Response struct {
	Data       interface{} `json:"data"`
	Message    string      `json:"message,omitempty"`
	Invalidate []QueryKey  `json:"invalidate,omitempty"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error" example:"not_found"`
	Message string `json:"message" example:"workspace not found"`
}

// DeletedRef is the data of a successful delete.
type DeletedRef struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type ActivityLogPage struct {
	Data       []ActivityLog `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

type HealthStatus struct {
	Status    string `json:"status" example:"ok"`
	Timestamp string `json:"timestamp" example:"2026-10-17T08:00:00Z"`
	Storage   string `json:"storage" example:"postgres"`
	AI        bool   `json:"ai"`
}
