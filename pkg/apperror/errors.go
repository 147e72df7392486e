package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Error codes at the remote-store boundary. Transport errors are the only
// kind callers may retry; auth errors halt the connection until an operator
// fixes the credentials.
const (
	CodeTransport       = "WC_TRANSPORT"
	CodeAuth            = "WC_AUTH"
	CodeValidation      = "WC_VALIDATION"
	CodeConflict        = "WC_CONFLICT"
	CodeIdempotentHit   = "WC_IDEMPOTENT_REPLAY"
	CodeNotFound        = "WC_NOT_FOUND"
	CodeSignature       = "SEC_001"
	CodePayloadTooLarge = "WC_PAYLOAD_TOO_LARGE"
	CodeInternal        = "SYS_001"
)

// ---- Remote store boundary (WC) ----

// Transport wraps a network-level failure: timeout, DNS, connection reset.
func Transport(err error) *AppError {
	return Wrap(CodeTransport, "Remote store unreachable", http.StatusBadGateway, err)
}

// Auth marks rejected credentials. Fatal for the connection.
func Auth(err error) *AppError {
	return Wrap(CodeAuth, "Remote store rejected credentials", http.StatusUnauthorized, err)
}

// Validation marks malformed local or remote data. Record-local, skipped
// with a logged reason, never aborts a batch.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

// ValidationWrap is Validation carrying the underlying decode error.
func ValidationWrap(message string, err error) *AppError {
	return Wrap(CodeValidation, message, http.StatusBadRequest, err)
}

// Conflict marks a field both systems changed with no resolution rule.
// Flagged for manual resolution, never auto-overwritten.
func Conflict(field string) *AppError {
	return New(CodeConflict, fmt.Sprintf("Conflicting changes on %q require manual resolution", field), http.StatusConflict)
}

// IdempotentHit is the deliberate no-op outcome for a duplicate delivery.
// Not a failure.
func IdempotentHit(key string) *AppError {
	return New(CodeIdempotentHit, fmt.Sprintf("Delivery for key %q already applied", key), http.StatusOK)
}

func NotFound(entity string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// PayloadTooLarge marks an image over the size ceiling, detected before any
// encoding or upload happens.
func PayloadTooLarge(size, limit int64) *AppError {
	return New(CodePayloadTooLarge, fmt.Sprintf("Payload of %d bytes exceeds %d byte limit", size, limit), http.StatusRequestEntityTooLarge)
}

// ---- Security (SEC) ----

func ErrInvalidSignature() *AppError {
	return New(CodeSignature, "Invalid webhook signature", http.StatusUnauthorized)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap(CodeInternal, "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}

// IsCode reports whether err is (or wraps) an *AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

// Retryable reports whether err is a transient transport failure that a
// bounded retry may recover from.
func Retryable(err error) bool {
	return IsCode(err, CodeTransport)
}
