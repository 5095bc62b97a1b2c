package dto

// ErrorResponse is the envelope for every non-2xx answer.
type ErrorResponse struct {
	OK      bool     `json:"ok"`
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type HealthResponse struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
	Time   string `json:"time"`
}
