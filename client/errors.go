package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned by the tracker API.
const (
	CodeValidation      = "validation_error"
	CodeVersionConflict = "version_conflict"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
)

// APIError represents a structured error response from the tracker API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id,omitempty"`

	// Fields holds per-field messages for validation errors.
	Fields map[string]string `json:"fields,omitempty"`
	// CurrentVersion and Current describe the stored issue on a version conflict.
	CurrentVersion int64  `json:"current_version,omitempty"`
	Current        *Issue `json:"current,omitempty"`
	// MissingIDs lists the issue ids a bulk request could not find.
	MissingIDs []int64 `json:"missing_ids,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("tracker: %d %s: %s (request_id=%s)", e.StatusCode, e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("tracker: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound returns true if the error is a 404 not found.
func IsNotFound(err error) bool {
	e, ok := AsAPIError(err)
	return ok && e.StatusCode == http.StatusNotFound
}

// IsConflict returns true if the error is a 409 conflict (duplicate key).
func IsConflict(err error) bool {
	e, ok := AsAPIError(err)
	return ok && e.StatusCode == http.StatusConflict
}

// IsVersionConflict returns true if an update lost an optimistic concurrency race.
func IsVersionConflict(err error) bool {
	e, ok := AsAPIError(err)
	return ok && e.Code == CodeVersionConflict
}

// IsValidation returns true if the request failed field validation.
func IsValidation(err error) bool {
	e, ok := AsAPIError(err)
	return ok && e.Code == CodeValidation
}

// IsRateLimited returns true if the error is a 429 rate limit.
func IsRateLimited(err error) bool {
	e, ok := AsAPIError(err)
	return ok && e.StatusCode == http.StatusTooManyRequests
}

// parseAPIError attempts to decode a JSON error body; falls back to raw text.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "unknown"
		apiErr.Message = string(body)
	}
	return apiErr
}
