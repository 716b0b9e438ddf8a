package domain

import "errors"

// Error taxonomy for the order store gateway and annotation store. Callers
// must treat gateway failures as "no change", never as an empty result.
var (
	// ErrStoreUnavailable indicates a connection or transport failure.
	ErrStoreUnavailable = errors.New("order store unavailable")

	// ErrQueryFailed indicates the store was reachable but the query failed.
	ErrQueryFailed = errors.New("order store query failed")

	// ErrNotFound is returned when a referenced order id does not exist.
	ErrNotFound = errors.New("order not found")

	// ErrInvalidStatus is returned when a status value is outside the
	// backend-defined vocabulary.
	ErrInvalidStatus = errors.New("status not in allowed set")

	// ErrAnnotationCorrupt indicates the persisted annotation document is
	// unreadable or malformed. Loads treat this as "no annotations".
	ErrAnnotationCorrupt = errors.New("annotation store corrupt")
)

// APIError represents a standardized API error with HTTP status code
type APIError struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// ValidationMessages provides human-readable validation error messages
// These map validator tags to user-friendly messages
var ValidationMessages = map[string]string{
	"required": "This field is required",
	"max":      "Exceeds maximum length",
	"min":      "Below minimum length",
	"gte":      "Must be greater than or equal to minimum value",
	"lte":      "Must be less than or equal to maximum value",
	"oneof":    "Must be one of the allowed values",
}

// GetValidationMessage returns a human-readable message for a validation tag
func GetValidationMessage(tag string) string {
	if msg, ok := ValidationMessages[tag]; ok {
		return msg
	}
	return "Validation failed: " + tag
}

// Common error types for RFC 7807 Problem Details
const (
	ErrorTypeValidation = "validation_error"
	ErrorTypeNotFound   = "not_found"
	ErrorTypeBadRequest = "bad_request"
	ErrorTypeInternal   = "internal_error"
)
