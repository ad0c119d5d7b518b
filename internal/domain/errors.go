package domain

// APIError represents a standardized API error with HTTP status code
type APIError struct {
	Type   string            `json:"type"`
	Code   string            `json:"code,omitempty"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
	// Remaining is the boundary value for quantity rejections
	Remaining *string `json:"remaining,omitempty"`
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
	"gt":       "Must be greater than minimum value",
	"lte":      "Must be less than or equal to maximum value",
	"uuid":     "Must be a valid UUID",
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
	ErrorTypeValidation   = "validation_error"
	ErrorTypeNotFound     = "not_found"
	ErrorTypeBadRequest   = "bad_request"
	ErrorTypeConflict     = "conflict"
	ErrorTypeUnauthorized = "unauthorized"
	ErrorTypeForbidden    = "forbidden"
	ErrorTypeInternal     = "internal_error"
	ErrorTypeRateLimited  = "rate_limited"
)

// Error codes returned to clients for ledger rejections
const (
	CodeInvalidQuantity       = "invalid_quantity"
	CodeMissingEvidence       = "missing_evidence"
	CodeExceedsRemaining      = "exceeds_remaining"
	CodeNotConsumable         = "not_consumable"
	CodeUploadFailed          = "upload_failed"
	CodePersistenceFailed     = "persistence_failed"
	CodeInconsistentTransfer  = "inconsistent_transfer"
	CodeOrderNotDeliverable   = "order_not_deliverable"
	CodeInvalidTransition     = "invalid_status_transition"
	CodeItemNotActive         = "item_not_active"
	CodeNotFound              = "not_found"
	CodeInvalidMovement       = "invalid_movement"
	CodeSameWarehouseTransfer = "same_warehouse_transfer"
	CodeLockTimeout           = "lock_timeout"
	CodeInternal              = "internal_error"
	CodeRateLimited           = "rate_limited"
)
