package dto

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
