package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
// Re-posting the same ride charge or payment reference surfaces as this error.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates a state conflict, e.g. a duplicate invoice number.
var ErrConflict = errors.New("conflict")

// ErrInvariant indicates an internal invariant was violated (unbalanced pair,
// wrong entry count). Valid callers never trigger this; it is always a bug.
var ErrInvariant = errors.New("invariant violation")

// ErrTransient indicates a storage connectivity problem that persisted past
// the retry budget. The whole operation may be retried by the caller.
var ErrTransient = errors.New("transient storage error")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// Stable machine-readable codes surfaced to calling layers.
const (
	CodeAccountNotFound        = "ACCOUNT_NOT_FOUND"
	CodeInvoiceNotFound        = "INVOICE_NOT_FOUND"
	CodeDuplicateTransaction   = "DUPLICATE_TRANSACTION"
	CodeDuplicateAccount       = "DUPLICATE_ACCOUNT"
	CodeDuplicateInvoiceNumber = "DUPLICATE_INVOICE_NUMBER"
	CodeRideAlreadyBilled      = "RIDE_ALREADY_BILLED"
	CodeValidationFailed       = "VALIDATION_FAILED"
	CodeUnbalancedTransaction  = "UNBALANCED_TRANSACTION"
	CodeStorageUnavailable     = "STORAGE_UNAVAILABLE"
	CodeInternal               = "INTERNAL_ERROR"
)

// AppError carries an HTTP-ish status, a stable machine code and the wrapped cause.
type AppError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a generic internal AppError.
func NewAppError(status int, message string, err error) *AppError {
	return &AppError{Status: status, Code: CodeInternal, Message: message, Err: err}
}

// NewNotFoundError creates an AppError wrapping ErrNotFound.
func NewNotFoundError(code, message string) *AppError {
	return &AppError{Status: 404, Code: code, Message: message, Err: ErrNotFound}
}

// NewConflictError creates an AppError with the given code wrapping ErrConflict.
func NewConflictError(code, message string) *AppError {
	return &AppError{Status: 409, Code: code, Message: message, Err: ErrConflict}
}

// NewValidationError creates an AppError wrapping ErrValidation.
func NewValidationError(message string) *AppError {
	return &AppError{Status: 400, Code: CodeValidationFailed, Message: message, Err: ErrValidation}
}

// NewInvariantError creates an AppError for a broken internal invariant. These
// always map to a 500: a valid caller cannot cause one.
func NewInvariantError(code, message string, err error) *AppError {
	return &AppError{Status: 500, Code: code, Message: message, Err: err}
}
