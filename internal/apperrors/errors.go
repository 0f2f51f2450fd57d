package apperrors

import "fmt"

// Error codes carried by validation and conflict errors so callers can tell
// the failure modes apart without parsing messages.
const (
	CodeMissingField      = "missing_field"
	CodeItemNotFound      = "item_not_found"
	CodeItemUnavailable   = "item_unavailable"
	CodeInvalidQuantity   = "invalid_quantity"
	CodeTotalMismatch     = "total_mismatch"
	CodeInvalidStatus     = "invalid_status"
	CodeInvalidPayment    = "invalid_payment_method"
	CodeAlreadyCancelled  = "already_cancelled"
	CodeInvalidTransition = "invalid_transition"
)

// ValidationError means the request itself is malformed; the caller can
// recover by correcting it. Maps to a 400 response.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidation(code, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError means the referenced order does not exist. Maps to 404.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func NewNotFound(resource string, id uint) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ConflictError means the request is well-formed but clashes with current
// state (already cancelled, disallowed transition, total mismatch). The
// existing frontend expects these as 400 responses.
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func NewConflict(code, format string, args ...interface{}) *ConflictError {
	return &ConflictError{Code: code, Message: fmt.Sprintf(format, args...)}
}
