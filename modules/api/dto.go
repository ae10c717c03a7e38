package api

import (
	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
)

// DefaultUserID owns every task when DEFAULT_USER_ID is not set. There is
// no authentication; a Config with an empty DefaultUserID rejects requests.
const DefaultUserID = "00000000-0000-0000-0000-000000000001"

// codeRateLimited is sent with 429 responses.
const codeRateLimited domain.Kind = "RATE_LIMITED"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failure.
type ErrorDetail struct {
	Code    domain.Kind    `json:"code"`
	Message string         `json:"message"`
	Details []domain.Issue `json:"details,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details"`
}
