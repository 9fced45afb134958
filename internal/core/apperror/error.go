// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes following domain-driven design
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation       = "VALIDATION_ERROR"
	CodeInvalidSelection = "INVALID_SELECTION"

	// Business rule violations (422)
	CodeBusinessRule           = "BUSINESS_RULE_VIOLATION"
	CodeTrackingNotRequired    = "TRACKING_NOT_REQUIRED"
	CodeInsufficientQuantity   = "INSUFFICIENT_QUANTITY"
	CodeInsufficientFinished   = "INSUFFICIENT_FINISHED_QUANTITY"
	CodeDefectiveBatch         = "DEFECTIVE_BATCH"
	CodeExpiredBatch           = "EXPIRED_BATCH"
	CodeIssueAborted           = "ISSUE_ABORTED"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError is the standard error type for the service.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidSelection creates an error for malformed batch selections (400).
// The collected per-line problems are attached as details so a UI can show
// all of them at once.
func NewInvalidSelection(problems []string) *AppError {
	return &AppError{
		Code:       CodeInvalidSelection,
		Message:    "Batch selection is invalid",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"errors": problems},
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBatchNotFound creates a not found error for a batch.
func NewBatchNotFound(batchID any) *AppError {
	return NewNotFound("Batch", batchID)
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewTrackingNotRequired signals that the item opted out of batch tracking.
func NewTrackingNotRequired(itemID any) *AppError {
	return &AppError{
		Code:       CodeTrackingNotRequired,
		Message:    "Item does not require batch tracking",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"item_id": itemID},
	}
}

// NewInsufficientQuantity creates a raw-stock shortage error for a batch.
func NewInsufficientQuantity(batchCode string, requested, available float64) *AppError {
	return &AppError{
		Code:       CodeInsufficientQuantity,
		Message:    fmt.Sprintf("Insufficient raw quantity in batch %s", batchCode),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"batch_code": batchCode,
			"requested":  requested,
			"available":  available,
		},
	}
}

// NewInsufficientFinished creates a finished-stock shortage error for a batch.
func NewInsufficientFinished(batchCode string, requested, available float64) *AppError {
	return &AppError{
		Code:       CodeInsufficientFinished,
		Message:    fmt.Sprintf("Insufficient finished quantity in batch %s", batchCode),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"batch_code": batchCode,
			"requested":  requested,
			"available":  available,
		},
	}
}

// NewDefectiveBatch rejects use of a batch that failed quality inspection.
func NewDefectiveBatch(batchCode string) *AppError {
	return &AppError{
		Code:       CodeDefectiveBatch,
		Message:    fmt.Sprintf("Cannot use defective batch %s", batchCode),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"batch_code": batchCode},
	}
}

// NewExpiredBatch rejects use of a batch past its expiry date.
func NewExpiredBatch(batchCode string, expiryDate string) *AppError {
	return &AppError{
		Code:       CodeExpiredBatch,
		Message:    fmt.Sprintf("Batch %s has expired", batchCode),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"batch_code": batchCode, "expiry_date": expiryDate},
	}
}

// NewIssueAborted wraps the collected validation errors of a multi-batch
// issue. The whole selection is rejected; no partial application happens.
func NewIssueAborted(problems []string) *AppError {
	return &AppError{
		Code:       CodeIssueAborted,
		Message:    "Issue aborted: one or more batch selections failed validation",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"errors": problems},
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound
	}
	return false
}

// IsCode checks if error carries a specific error code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
